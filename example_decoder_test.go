package erf_test

import (
	"context"
	"fmt"
	"log"

	"github.com/zoomoid/go-erf"
)

// Provenance metadata is a sequence of tags grouped into sections. ParseMetadata decodes a
// payload on its own, without the surrounding record.
func Example_metadata() {
	payload := []byte{
		0xff, 0x03, 0x00, 0x04, // Interface Section header, 4 bytes
		0x00, 0x05, 0x00, 0x14, // section ID 5, section length 20
		0x00, 0x42, 0x00, 0x08, // if_speed, 8 bytes
		0x00, 0x00, 0x00, 0x00, 0x02, 0xfa, 0xf0, 0x80,
	}

	tree := &erf.Tree{}
	erf.ParseMetadata(erf.DefaultRegistry(), payload, tree)
	fmt.Print(tree)
	// Output:
	// Interface Section 5
	//     Provenance Interface Section Header
	//         Section ID: 5
	//         Section Length: 20 [correct]
	//         Tag Type: interface (65283)
	//         Tag Length: 4
	//     Interface Line Rate: 50 Mb/s (50000000 bps)
	//         Tag Type: if_speed (66)
	//         Tag Length: 8
}

// A decoder session reads all records of a capture in order. Records following a metadata record
// of the same host and source link back to it.
func Example_decoder() {
	ctx := context.Background()

	r, err := erf.OpenFile("capture.erf.gz")
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	records, err := erf.ReadFull(r)
	if err != nil {
		log.Fatal(err)
	}

	decoder := erf.NewDecoder(erf.DefaultRegistry(), erf.DecoderOptions{MaxExtensionHeaders: 32})
	for _, rec := range records {
		tree := &erf.Tree{}
		if err := decoder.Decode(ctx, rec, tree); err != nil {
			log.Println(fmt.Errorf("failed to decode ERF record %d: %w", rec.Seq, err))
			continue
		}
		fmt.Print(tree)
	}
}

// The RecordStream delivers records on a channel while the capture is read in the background.
func Example_recordStream() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f, err := erf.OpenFile("capture.erf")
	if err != nil {
		log.Fatal(err)
	}

	s := erf.NewRecordStream(f)
	go s.Start(ctx)

	decoder := erf.NewDecoder(nil)
	for rec := range s.Records() {
		_ = decoder.Decode(ctx, rec, erf.DiscardSink)
	}
	if err, ok := <-s.Errors(); ok {
		log.Println(fmt.Errorf("failed to read ERF record: %w", err))
	}
	fmt.Println(decoder.Index().Len())
}
