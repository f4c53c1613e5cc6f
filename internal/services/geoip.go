package services

import (
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
)

type geoIPReader interface {
	Country(ip net.IP) (*geoip2.Country, error)
	Metadata() maxminddb.Metadata
	Close() error
}

// GeoIPService resolves countries from a local MaxMind database. Lookups return
// "Unknown" until a database is loaded.
type GeoIPService struct {
	dbPath    string
	logger    *slog.Logger
	geoReader geoIPReader
	geoLock   sync.RWMutex
}

func NewGeoIPService(dbPath string, logger *slog.Logger) *GeoIPService {
	return &GeoIPService{
		dbPath: dbPath,
		logger: logger,
	}
}

func (s *GeoIPService) Init() {
	if s.dbPath == "" {
		s.logger.Info("GeoIP: no database configured, country lookups disabled")
		return
	}
	if _, err := os.Stat(s.dbPath); err != nil {
		s.logger.Warn("GeoIP: database not found", "path", s.dbPath, "error", err)
		return
	}

	reader, err := geoip2.Open(s.dbPath)
	if err != nil {
		s.logger.Error("GeoIP: failed to open database", "path", s.dbPath, "error", err)
		return
	}

	s.setReader(reader)
}

func (s *GeoIPService) setReader(reader geoIPReader) {
	s.geoLock.Lock()
	if s.geoReader != nil {
		s.geoReader.Close()
	}
	s.geoReader = reader
	s.geoLock.Unlock()

	meta := reader.Metadata()
	s.logger.Info("GeoIP: database loaded", "path", s.dbPath, "type", meta.DatabaseType, "epoch", meta.BuildEpoch)
}

func (s *GeoIPService) Close() {
	s.geoLock.Lock()
	defer s.geoLock.Unlock()
	if s.geoReader != nil {
		s.geoReader.Close()
		s.geoReader = nil
	}
}

func (s *GeoIPService) Country(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "Invalid IP"
	}
	if ip.IsLoopback() {
		return "Localhost"
	}

	s.geoLock.RLock()
	defer s.geoLock.RUnlock()
	if s.geoReader == nil {
		return "Unknown"
	}

	record, err := s.geoReader.Country(ip)
	if err != nil {
		s.logger.Error("GeoIP: lookup error", "ip", ipStr, "error", err)
		return "Error"
	}
	if name, ok := record.Country.Names["en"]; ok && name != "" {
		return name
	}
	if record.Country.IsoCode != "" {
		return record.Country.IsoCode
	}
	return "Unknown"
}
