package device

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/spaolacci/murmur3"
)

// Fingerprint hashes the given traits into a short hex signature.
func Fingerprint(traits ...string) string {
	return fmt.Sprintf("%016x", murmur3.Sum64([]byte(strings.Join(traits, "|"))))
}

// HostFingerprint derives a signature for the local machine.
func HostFingerprint() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown-host"
	}
	_, offset := time.Now().Zone()
	return Fingerprint(host, runtime.GOOS, runtime.GOARCH, os.Getenv("USER"), fmt.Sprint(offset))
}
