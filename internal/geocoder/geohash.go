package geocoder

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// geohash：标准 base32 geohash，经度位在前；仅用作缓存键
func geohash(lon, lat float64, precision int) string {
	lonLo, lonHi := -180.0, 180.0
	latLo, latHi := -90.0, 90.0
	out := make([]byte, 0, precision)
	ch, bit := 0, 0
	even := true
	for len(out) < precision {
		ch <<= 1
		if even {
			mid := (lonLo + lonHi) / 2
			if lon >= mid {
				ch |= 1
				lonLo = mid
			} else {
				lonHi = mid
			}
		} else {
			mid := (latLo + latHi) / 2
			if lat >= mid {
				ch |= 1
				latLo = mid
			} else {
				latHi = mid
			}
		}
		even = !even
		if bit++; bit == 5 {
			out = append(out, geohashAlphabet[ch])
			ch, bit = 0, 0
		}
	}
	return string(out)
}
