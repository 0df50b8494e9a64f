package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	GrpcHost  string           `yaml:"grpc_host"`
	GrpcPort  int              `yaml:"grpc_port"`
	Backend   MBackendConfig   `yaml:"backend"`
	Storage   MStorageConfig   `yaml:"storage"`
	Dashboard MDashboardConfig `yaml:"dashboard"`
}

type MBackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	RequestTimeout int    `yaml:"timeout"` // seconds, 0 = no timeout
	UserAgent      string `yaml:"user_agent"`
	Proxy          string `yaml:"proxy"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // sqlite, postgres or none
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MDashboardConfig struct {
	Defaults               MFilterSnapshot `yaml:"defaults"`
	Controls               MControlsConfig `yaml:"controls"`
	RefreshIntervalSeconds int             `yaml:"refresh_interval_seconds"` // 0 disables auto refresh
	RetriesPerMinute       int             `yaml:"retries_per_minute"`
	HistorySize            int             `yaml:"history_size"`
	Map                    MMapConfig      `yaml:"map"`
}

type MControlsConfig struct {
	Magnitude MRangeControl `yaml:"magnitude" json:"magnitude"`
	Depth     MRangeControl `yaml:"depth" json:"depth"`
	TimeRange MRangeControl `yaml:"time_range" json:"time_range"`
}

// MRangeControl describes one range input rendered on the dashboard page.
type MRangeControl struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Step float64 `yaml:"step" json:"step"`
}

type MMapConfig struct {
	CenterLat   float64 `yaml:"center_lat" json:"center_lat"`
	CenterLon   float64 `yaml:"center_lon" json:"center_lon"`
	Zoom        int     `yaml:"zoom" json:"zoom"`
	TileURL     string  `yaml:"tile_url" json:"tile_url"`
	Attribution string  `yaml:"attribution" json:"attribution"`
}
