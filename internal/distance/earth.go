package distance

import "math"

// WGS-84 长短半轴（米）
const (
	wgs84A = 6_378_137.0
	wgs84B = 6_356_752.3142

	// 平均地球半径取长短半轴的算术平均
	earthRadius = (wgs84A + wgs84B) * 0.5

	nanoDegree = 1e-9
)

// Earth：地表距离（米，向下截断）
// 输入为 (经度, 纬度) 纳度；换算为 n-vector 后以 atan2(|n1×n2|, n1·n2) 求夹角。
// 参考：https://en.wikipedia.org/wiki/N-vector
func Earth(a, b [2]int64) uint64 {
	return uint64(EarthDegrees(toDegrees(a), toDegrees(b)))
}

// EarthDegrees：与 Earth 相同，但输入为 (经度, 纬度) 角度，返回浮点米
func EarthDegrees(a, b [2]float64) float64 {
	n1 := normal(a)
	n2 := normal(b)
	return earthRadius * math.Atan2(length(cross(n1, n2)), dot(n1, n2))
}

func toDegrees(p [2]int64) [2]float64 {
	return [2]float64{float64(p[0]) * nanoDegree, float64(p[1]) * nanoDegree}
}

// Nano：角度转纳度（四舍五入），导入与查询共用
func Nano(lon, lat float64) [2]int64 {
	return [2]int64{int64(math.Round(lon * 1e9)), int64(math.Round(lat * 1e9))}
}

func normal(p [2]float64) [3]float64 {
	sinLon, cosLon := math.Sincos(p[0] * math.Pi / 180)
	sinLat, cosLat := math.Sincos(p[1] * math.Pi / 180)
	return [3]float64{cosLat * cosLon, cosLat * sinLon, sinLat}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func length(a [3]float64) float64 {
	return math.Sqrt(dot(a, a))
}
