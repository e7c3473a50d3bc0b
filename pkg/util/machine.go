package util

import (
	"os"
	"sync"

	"github.com/denisbrodbeck/machineid"
)

var (
	instanceID     string
	instanceIDOnce sync.Once
)

// InstanceID returns a stable identifier of this host, hashed with appName so the raw
// machine id never leaves the process. Falls back to the hostname.
// InstanceID 返回当前主机的稳定标识（与 appName 做 HMAC），失败时退回主机名
func InstanceID(appName string) string {
	instanceIDOnce.Do(func() {
		if id, err := machineid.ProtectedID(appName); err == nil && id != "" {
			instanceID = id[:16]
			return
		}
		if host, err := os.Hostname(); err == nil {
			instanceID = host
			return
		}
		instanceID = "unknown"
	})
	return instanceID
}
