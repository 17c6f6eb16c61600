// 包 ipgeo：把 IP 地址解析为查询坐标（MaxMind GeoIP2/GeoLite2 City 库）
// 背景：find --ip 用于"这个 IP 附近有哪些地名"，坐标精度取决于库文件，通常为城市级
package ipgeo

import (
	"errors"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"geocoding/internal/logger"
)

var (
	ErrInvalidIP = errors.New("ipgeo: invalid ip address")
	ErrNotFound  = errors.New("ipgeo: no location for address")
)

// Location：IP 的定位结果，坐标单位为度
type Location struct {
	Lon        float64
	Lat        float64
	AccuracyKm uint16
	Country    string
	City       string
}

type cityReader interface {
	City(ip net.IP) (*geoip2.City, error)
}

// Locator：只读库句柄，可并发使用
type Locator struct {
	db     cityReader
	closer func() error
}

// Open：打开 mmdb 文件
func Open(path string) (*Locator, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip %s: %w", path, err)
	}
	md := db.Metadata()
	logger.L().Debug("ipgeo_open", "path", path, "type", md.DatabaseType, "build_epoch", md.BuildEpoch)
	return &Locator{db: db, closer: db.Close}, nil
}

// 文档注释：解析单个 IP
// 返回：格式错误返回 ErrInvalidIP；库中没有坐标返回 ErrNotFound
func (l *Locator) Locate(ip string) (Location, error) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return Location{}, fmt.Errorf("%q: %w", ip, ErrInvalidIP)
	}
	rec, err := l.db.City(addr)
	if err != nil {
		return Location{}, fmt.Errorf("lookup %s: %w", ip, err)
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return Location{}, fmt.Errorf("%s: %w", ip, ErrNotFound)
	}
	loc := Location{
		Lon:        rec.Location.Longitude,
		Lat:        rec.Location.Latitude,
		AccuracyKm: rec.Location.AccuracyRadius,
		Country:    rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
	logger.L().Debug("ipgeo_locate", "ip", ip, "lon", loc.Lon, "lat", loc.Lat, "country", loc.Country)
	return loc, nil
}

// Close：释放库文件
func (l *Locator) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer()
}
