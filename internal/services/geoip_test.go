package services

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/oschwald/geoip2-golang"
	"github.com/oschwald/maxminddb-golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGeoIPReader struct {
	countryFunc func(ip net.IP) (*geoip2.Country, error)
	closed      bool
}

func (m *mockGeoIPReader) Country(ip net.IP) (*geoip2.Country, error) { return m.countryFunc(ip) }
func (m *mockGeoIPReader) Metadata() maxminddb.Metadata {
	return maxminddb.Metadata{DatabaseType: "GeoLite2-Country", BuildEpoch: 1700000000}
}
func (m *mockGeoIPReader) Close() error { m.closed = true; return nil }

func TestGeoIPService_Init_Disabled(t *testing.T) {
	service := NewGeoIPService("", testLogger())
	service.Init()
	assert.Nil(t, service.geoReader)
	assert.Equal(t, "Unknown", service.Country("8.8.8.8"))
}

func TestGeoIPService_Init_MissingFile(t *testing.T) {
	service := NewGeoIPService("/invalid/path/to/db.mmdb", testLogger())
	service.Init()
	assert.Nil(t, service.geoReader)
}

func TestGeoIPService_Init_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("not a maxmind database"), 0o644))

	service := NewGeoIPService(path, testLogger())
	service.Init()
	assert.Nil(t, service.geoReader)
	service.Close()
}

func TestGeoIPService_Country(t *testing.T) {
	service := NewGeoIPService("", testLogger())

	assert.Equal(t, "Localhost", service.Country("127.0.0.1"))
	assert.Equal(t, "Localhost", service.Country("::1"))
	assert.Equal(t, "Invalid IP", service.Country("not-an-ip"))
	assert.Equal(t, "Unknown", service.Country("1.2.3.4"))
}

func TestGeoIPService_CountryWithReader(t *testing.T) {
	service := NewGeoIPService("", testLogger())
	reader := &mockGeoIPReader{countryFunc: func(ip net.IP) (*geoip2.Country, error) {
		switch ip.String() {
		case "5.9.0.1":
			c := &geoip2.Country{}
			c.Country.IsoCode = "DE"
			c.Country.Names = map[string]string{"en": "Germany"}
			return c, nil
		case "5.9.0.2":
			c := &geoip2.Country{}
			c.Country.IsoCode = "FR"
			return c, nil
		case "5.9.0.3":
			return nil, errors.New("lookup failed")
		}
		return &geoip2.Country{}, nil
	}}
	service.setReader(reader)

	assert.Equal(t, "Germany", service.Country("5.9.0.1"))
	assert.Equal(t, "FR", service.Country("5.9.0.2"))
	assert.Equal(t, "Error", service.Country("5.9.0.3"))
	assert.Equal(t, "Unknown", service.Country("5.9.0.4"))

	replacement := &mockGeoIPReader{countryFunc: reader.countryFunc}
	service.setReader(replacement)
	assert.True(t, reader.closed)

	service.Close()
	assert.True(t, replacement.closed)
	assert.Equal(t, "Unknown", service.Country("5.9.0.1"))
}
