//go:build !purego && go1.20
// +build !purego,go1.20

package ws

import "unsafe"

func strToBytes(str string) []byte {
	return unsafe.Slice(unsafe.StringData(str), len(str))
}

func btsToString(bts []byte) string {
	if len(bts) == 0 {
		return ""
	}
	return unsafe.String(&bts[0], len(bts))
}
