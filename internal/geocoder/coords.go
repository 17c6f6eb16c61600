package geocoder

import (
	"fmt"
	"math"
	"strings"
)

// CoordSys：查询坐标所用的坐标系
type CoordSys int

const (
	WGS84 CoordSys = iota
	GCJ02
	BD09
)

// ParseCoordSys：接受 wgs84 / gcj02 / bd09（大小写与连字符不敏感），空串为 WGS-84
func ParseCoordSys(s string) (CoordSys, error) {
	switch strings.ReplaceAll(strings.ToLower(s), "-", "") {
	case "", "wgs84":
		return WGS84, nil
	case "gcj02":
		return GCJ02, nil
	case "bd09":
		return BD09, nil
	}
	return WGS84, fmt.Errorf("unknown coordinate system %q", s)
}

func (c CoordSys) String() string {
	switch c {
	case GCJ02:
		return "GCJ-02"
	case BD09:
		return "BD-09"
	default:
		return "WGS-84"
	}
}

// 文档注释：转换到 WGS-84（树中坐标的坐标系）
// 背景：国内互联网地图使用 GCJ-02 / BD-09 偏移坐标，直接查询会偏出数百米
// 约束：GCJ-02 反算为一次迭代近似，误差在米级；中国范围外 GCJ-02 与 WGS-84 相同
func (c CoordSys) ToWGS84(lon, lat float64) (float64, float64) {
	switch c {
	case GCJ02:
		return gcjToWGS(lon, lat)
	case BD09:
		return gcjToWGS(bdToGCJ(lon, lat))
	default:
		return lon, lat
	}
}

const (
	krasovskyA  = 6378245.0
	krasovskyE2 = 0.00669342162296594323
)

func gcjToWGS(lon, lat float64) (float64, float64) {
	glon, glat := wgsToGCJ(lon, lat)
	return 2*lon - glon, 2*lat - glat
}

func wgsToGCJ(lon, lat float64) (float64, float64) {
	if outOfChina(lon, lat) {
		return lon, lat
	}
	dLat := offsetLat(lon-105.0, lat-35.0)
	dLon := offsetLon(lon-105.0, lat-35.0)
	radLat := lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - krasovskyE2*magic*magic
	sqrtMagic := math.Sqrt(magic)
	dLat = (dLat * 180.0) / ((krasovskyA * (1 - krasovskyE2)) / (magic * sqrtMagic) * math.Pi)
	dLon = (dLon * 180.0) / (krasovskyA / sqrtMagic * math.Cos(radLat) * math.Pi)
	return lon + dLon, lat + dLat
}

func bdToGCJ(lon, lat float64) (float64, float64) {
	x := lon - 0.0065
	y := lat - 0.006
	z := math.Sqrt(x*x+y*y) - 0.00002*math.Sin(y*math.Pi)
	theta := math.Atan2(y, x) - 0.000003*math.Cos(x*math.Pi)
	return z * math.Cos(theta), z * math.Sin(theta)
}

func outOfChina(lon, lat float64) bool {
	return lon < 72.004 || lon > 137.8347 || lat < 0.8293 || lat > 55.8271
}

func offsetLat(x, y float64) float64 {
	ret := -100.0 + 2.0*x + 3.0*y + 0.2*y*y + 0.1*x*y + 0.2*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(y*math.Pi) + 40.0*math.Sin(y/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(y/12.0*math.Pi) + 320*math.Sin(y*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func offsetLon(x, y float64) float64 {
	ret := 300.0 + x + 2.0*y + 0.1*x*x + 0.1*x*y + 0.1*math.Sqrt(math.Abs(x))
	ret += (20.0*math.Sin(6.0*x*math.Pi) + 20.0*math.Sin(2.0*x*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(x*math.Pi) + 40.0*math.Sin(x/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(x/12.0*math.Pi) + 300.0*math.Sin(x/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}
