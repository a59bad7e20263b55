package cni

// This file reproduces the cross-table CNI conversions from the original
// nxtvepg source (epgvbi/cni_tables.c): ConvertP8301ToVps, ConvertPdcToVps,
// ConvertVpsToPdc, ConvertUnknownToPdc and the PDC/NI table search, country
// lookup and description lookup built on top of them.

// pdcCountryMaskSet is the set of country bytes (upper byte of a PDC CNI)
// for which a PDC value converts to a 12-bit VPS value by masking off the
// top 4 bits of the country byte: Germany, Austria, Switzerland, Ukraine.
var pdcCountryMaskSet = map[uint16]bool{
	0x1D: true, 0xFD: true,
	0x1A: true, 0xFA: true,
	0x24: true, 0xF4: true,
	0x77: true, 0xF7: true,
}

// vpsToPdcCountrySet is used by ConvertVpsToPdc: VPS values in these
// countries get the PDC-flag nibble OR'd into the country byte.
var vpsToPdcCountrySet = map[uint16]uint16{
	0x0D: 0x1000, // Germany
	0x0A: 0x1000, // Austria
	0x04: 0x2000, // Switzerland
}

// SearchCountryTable looks up the country description for a PDC/VPS CNI's
// country byte (cni >> 8).
func SearchCountryTable(cni uint16) (name string, ltoMinutes int, ok bool) {
	code := cni >> 8
	for _, c := range countryTable {
		if c.code == code {
			return c.name, c.lto, true
		}
	}
	return "", 0, false
}

// ConvertVpsToPdc converts a 12-bit VPS CNI to its 16-bit PDC form by
// flagging the country byte per vpsToPdcCountrySet; CNIs from other
// countries pass through unchanged.
func ConvertVpsToPdc(vpsCni uint16) uint16 {
	country := vpsCni >> 8
	if flag, ok := vpsToPdcCountrySet[country]; ok {
		return vpsCni | flag
	}
	return vpsCni
}

// searchNiPdcTable finds the pdcDesc row matching either the PDC form of
// cni (after ConvertVpsToPdc) or the raw NI value of cni, in linear
// first-match order exactly as the original source does -- the open
// question in SPEC_FULL.md §9 says this order is significant but
// undocumented in the original, so the first pack wins, not the most
// specific.
func searchNiPdcTable(cni uint16) (pdcDesc, bool) {
	pdcCni := ConvertVpsToPdc(cni)
	for _, row := range pdcTable {
		if row.pdc == pdcCni || row.ni == cni {
			return row, true
		}
	}
	return pdcDesc{}, false
}

// ConvertP8301ToVps converts a Packet 8/30 Format 1 (NI) CNI to its VPS
// equivalent using the PDC/NI table, then masks the country byte for the
// Germany/Austria/Switzerland/Ukraine group (VPS CNIs are 12-bit).
func ConvertP8301ToVps(cni uint16) uint16 {
	for _, row := range pdcTable {
		if row.ni == cni {
			out := cni
			if row.pdc&0xff != 0 {
				out = row.pdc
			}
			if pdcCountryMaskSet[out>>8] {
				out &= 0x0fff
			}
			return out
		}
	}
	return cni
}

// ConvertPdcToVps converts a 16-bit PDC CNI to a 12-bit VPS CNI by masking
// the country byte for the four countries whose PDC encoding only differs
// from VPS by the top flag nibble.
func ConvertPdcToVps(cni uint16) uint16 {
	if pdcCountryMaskSet[cni>>8] {
		return cni & 0x0fff
	}
	return cni
}

// ConvertUnknownToPdc converts a CNI of unknown origin (VPS or NI) to its
// PDC form: first try the NI->VPS table; if that leaves the value
// unchanged, apply the same country-byte masking ConvertPdcToVps uses, but
// without the PDC-flagged byte values (0xFD/0xFA/0xF4/0xF7), matching the
// original's narrower mask set for this path.
var unknownToPdcMaskSet = map[uint16]bool{0x1D: true, 0x1A: true, 0x24: true, 0x77: true}

func ConvertUnknownToPdc(cni uint16) uint16 {
	converted := ConvertP8301ToVps(cni)
	if converted != cni {
		return converted
	}
	if unknownToPdcMaskSet[cni>>8] {
		return cni & 0x0fff
	}
	return cni
}

// GetDescription returns a human-readable network name and country name
// for cni, matching CniGetDescription: cni==0 is invalid, temporary
// network codes (high byte 0xFF) are reported as such and never carry a
// resolvable name.
func GetDescription(cni uint16) (name string, country string, ok bool) {
	if cni == 0 {
		return "", "", false
	}
	if cni&0xff00 == 0xff00 {
		return "unknown network (temporary network code, not officially registered)", "", true
	}
	if row, found := searchNiPdcTable(cni); found {
		countryName, _, _ := SearchCountryTable(cni)
		return row.name, countryName, true
	}
	return "", "", false
}

// GetProviderLto returns the local time offset, in seconds, for cni's
// country.
func GetProviderLto(cni uint16) (seconds int, ok bool) {
	_, lto, found := SearchCountryTable(cni)
	if !found {
		return 0, false
	}
	return lto * 60, true
}
