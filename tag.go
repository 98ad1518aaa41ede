/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package erf

// Tag codes with behavior beyond generic decoding by value type. The complete set of tags is
// read from the embedded tag table.
const (
	TagPadding          uint16 = 0
	TagComment          uint16 = 1
	TagGenTime          uint16 = 2
	TagParentSection    uint16 = 3
	TagReset            uint16 = 4
	TagHostID           uint16 = 6
	TagMaskCIDR         uint16 = 10
	TagLocLat           uint16 = 27
	TagLocLong          uint16 = 28
	TagTunnelingMode    uint16 = 38
	TagMem              uint16 = 40
	TagStreamFlags      uint16 = 54
	TagEntropyThreshold uint16 = 55
	TagSmartTruncDef    uint16 = 56
	TagExtHdrsAdded     uint16 = 57
	TagExtHdrsRemoved   uint16 = 58
	TagTemperature      uint16 = 60
	TagPower            uint16 = 61

	TagIfSpeed      uint16 = 66
	TagIfWWN        uint16 = 73
	TagIfTxSpeed    uint16 = 75
	TagIfRxPower    uint16 = 79
	TagIfTxPower    uint16 = 80
	TagIfLinkStatus uint16 = 81

	TagSrcWWN              uint16 = 140
	TagDestWWN             uint16 = 141
	TagInitiatorMinEntropy uint16 = 155
	TagResponderMinEntropy uint16 = 156
	TagInitiatorAvgEntropy uint16 = 157
	TagResponderAvgEntropy uint16 = 158
	TagInitiatorMaxEntropy uint16 = 159
	TagResponderMaxEntropy uint16 = 160

	TagNSHostIPv4  uint16 = 256
	TagNSHostIPv6  uint16 = 257
	TagNSHostMAC   uint16 = 258
	TagNSHostEUI   uint16 = 259
	TagNSHostIBGID uint16 = 260
	TagNSHostIBLID uint16 = 261
	TagNSHostWWN   uint16 = 262
	TagNSHostFCID  uint16 = 263
	TagNSDNSIPv4   uint16 = 264
	TagNSDNSIPv6   uint16 = 265

	TagPTPOffsetFromMaster  uint16 = 401
	TagPTPMeanPathDelay     uint16 = 402
	TagPTPGMClockQuality    uint16 = 406
	TagPTPCurrentUTCOffset  uint16 = 407
	TagPTPTimeProperties    uint16 = 408
)

// TagTemplate describes a provenance tag independent of the section it appears in.
type TagTemplate struct {
	Code    uint16    `json:"code" yaml:"code"`
	Name    string    `json:"name" yaml:"name"`
	Abbrev  string    `json:"abbrev" yaml:"abbrev"`
	Type    ValueType `json:"type" yaml:"type"`
	Display Display   `json:"display,omitempty" yaml:"display,omitempty"`
}

func isNameServiceTag(code uint16) bool {
	return code >= TagNSHostIPv4 && code <= TagNSDNSIPv6
}

func isExtHdrsTag(code uint16) bool {
	return code == TagExtHdrsAdded || code == TagExtHdrsRemoved
}

func isEntropyTag(code uint16) bool {
	switch code {
	case TagEntropyThreshold,
		TagInitiatorMinEntropy, TagResponderMinEntropy,
		TagInitiatorAvgEntropy, TagResponderAvgEntropy,
		TagInitiatorMaxEntropy, TagResponderMaxEntropy:
		return true
	}
	return false
}

func isWWNTag(code uint16) bool {
	switch code {
	case TagIfWWN, TagSrcWWN, TagDestWWN, TagNSHostWWN:
		return true
	}
	return false
}
