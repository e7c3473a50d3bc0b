package dto

// HealthDTO 健康检查响应
type HealthDTO struct {
	Status     string  `json:"status"`
	Database   string  `json:"database"`
	Uptime     float64 `json:"uptime"`
	Goroutines int     `json:"goroutines"`
	MemoryRSS  uint64  `json:"memoryRss,omitempty"`
	CPUPercent float64 `json:"cpuPercent,omitempty"`
}

// VersionDTO version information for API response
// VersionDTO 版本信息 API 响应对象
type VersionDTO struct {
	Version   string `json:"version"`   // Current version // 当前版本
	GitTag    string `json:"gitTag"`    // Git tag // Git 标签
	BuildTime string `json:"buildTime"` // Build time // 构建时间
	Instance  string `json:"instance"`  // Instance id // 实例标识
}
