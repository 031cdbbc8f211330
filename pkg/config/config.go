package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
)

// AssetIDPlaceholder 存储路径模板中的资产占位符
const AssetIDPlaceholder = "{assetId}"

// Config 应用配置
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	JWT             JWTConfig             `mapstructure:"jwt"`
	Log             LogConfig             `mapstructure:"log"`
	Minio           MinioConfig           `mapstructure:"minio"`
	Encoding        EncodingConfig        `mapstructure:"encoding"`
	Thumbnail       ThumbnailConfig       `mapstructure:"thumbnail"`
	Sprite          SpriteConfig          `mapstructure:"sprite"`
	Storage         StorageConfig         `mapstructure:"storage"`
	Pipeline        PipelineConfig        `mapstructure:"pipeline"`
	Worker          WorkerConfig          `mapstructure:"worker"`
	Scheduler       SchedulerConfig       `mapstructure:"scheduler"`
	ServiceRegistry ServiceRegistryConfig `mapstructure:"service_registry"`
	GRPCServer      GRPCServerConfig      `mapstructure:"grpc_server"`
	Metrics         MetricsConfig         `mapstructure:"metrics"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置，driver 支持 mysql 与 sqlite
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
}

// ServiceRegistryConfig registration configuration.
type ServiceRegistryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoints       []string      `mapstructure:"endpoints"`
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	ServiceName     string        `mapstructure:"service_name"`
	ServiceID       string        `mapstructure:"service_id"`
	RegisterHost    string        `mapstructure:"register_host"`
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// GRPCServerConfig gRPC server configuration.
type GRPCServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// EncodingConfig 编码相关配置
type EncodingConfig struct {
	FFmpegPath       string          `mapstructure:"ffmpeg_path"`
	FFprobePath      string          `mapstructure:"ffprobe_path"`
	Threads          int             `mapstructure:"threads"`
	AudioCodec       string          `mapstructure:"audio_codec"`
	AudioBitrate     string          `mapstructure:"audio_bitrate"`
	SegmentDuration  int             `mapstructure:"segment_duration"`
	EncodeTimeout    time.Duration   `mapstructure:"encode_timeout"`
	ProbeTimeout     time.Duration   `mapstructure:"probe_timeout"`
	ImageTimeout     time.Duration   `mapstructure:"image_timeout"`
	ParallelProfiles int             `mapstructure:"parallel_profiles"`
	ProgressInterval time.Duration   `mapstructure:"progress_interval"`
	Formats          FormatsConfig   `mapstructure:"formats"`
	Profiles         []ProfileConfig `mapstructure:"profiles"`
}

// FormatsConfig 各输出格式的默认开关，单个 rendition 可覆盖
type FormatsConfig struct {
	Progressive bool `mapstructure:"progressive"`
	HLS         bool `mapstructure:"hls"`
	DASH        bool `mapstructure:"dash"`
}

// ProfileConfig 编码档位，按配置顺序组成有序目录
type ProfileConfig struct {
	Name      string  `mapstructure:"name"`
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`
	Framerate float64 `mapstructure:"framerate"`
	Bitrate   string  `mapstructure:"bitrate"`
	Codec     string  `mapstructure:"codec"`
	Profile   string  `mapstructure:"profile"`
	Level     string  `mapstructure:"level"`
}

// ThumbnailConfig 封面图配置
type ThumbnailConfig struct {
	Time      float64 `mapstructure:"time"`
	MaxWidth  int     `mapstructure:"max_width"`
	MaxHeight int     `mapstructure:"max_height"`
	Format    string  `mapstructure:"format"`
	Quality   int     `mapstructure:"quality"`
}

// SpriteConfig 拖动预览雪碧图配置
type SpriteConfig struct {
	Frames      int    `mapstructure:"frames"`
	Columns     int    `mapstructure:"columns"`
	Rows        int    `mapstructure:"rows"`
	FrameWidth  int    `mapstructure:"frame_width"`
	FrameHeight int    `mapstructure:"frame_height"`
	Format      string `mapstructure:"format"`
	Quality     int    `mapstructure:"quality"`
}

// StorageConfig 本地存储布局，路径模板中使用 {assetId}
type StorageConfig struct {
	BasePath string        `mapstructure:"base_path"`
	TempDir  string        `mapstructure:"temp_dir"`
	LockDir  string        `mapstructure:"lock_dir"`
	Layout   LayoutConfig  `mapstructure:"layout"`
	Cleanup  bool          `mapstructure:"cleanup_on_hard_delete"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// LayoutConfig 各类产物相对 BasePath 的目录模板
type LayoutConfig struct {
	Originals   string `mapstructure:"originals"`
	Progressive string `mapstructure:"progressive"`
	HLS         string `mapstructure:"hls"`
	DASH        string `mapstructure:"dash"`
	Thumbnails  string `mapstructure:"thumbnails"`
	Sprites     string `mapstructure:"sprites"`
	Manifests   string `mapstructure:"manifests"`
}

// PipelineConfig 流水线阶段重试配置
type PipelineConfig struct {
	EncodeAttempts    int           `mapstructure:"encode_attempts"`
	ThumbnailAttempts int           `mapstructure:"thumbnail_attempts"`
	SpriteAttempts    int           `mapstructure:"sprite_attempts"`
	ManifestAttempts  int           `mapstructure:"manifest_attempts"`
	PublishAttempts   int           `mapstructure:"publish_attempts"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	LockRetryDelay    time.Duration `mapstructure:"lock_retry_delay"`
	Publish           bool          `mapstructure:"publish"`
}

// WorkerConfig Worker相关配置
type WorkerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	WorkerID            string        `mapstructure:"worker_id"`
	Concurrency         int           `mapstructure:"concurrency"`
	QueueCapacity       int           `mapstructure:"queue_capacity"`
	QueueBackend        string        `mapstructure:"queue_backend"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

// SchedulerConfig 恢复调度配置
type SchedulerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	RecoveryInterval time.Duration `mapstructure:"recovery_interval"`
	StallTimeout     time.Duration `mapstructure:"stall_timeout"`
	BatchSize        int           `mapstructure:"batch_size"`
}

// JWTConfig JWT配置，secret 为空时不启用鉴权
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	BootstrapServers     []string          `mapstructure:"bootstrap_servers"`
	ClientID             string            `mapstructure:"client_id"`
	GroupID              string            `mapstructure:"group_id"`
	Enabled              bool              `mapstructure:"enabled"`
	Topics               KafkaTopicsConfig `mapstructure:"topics"`
	CommitOnDecodeError  bool              `mapstructure:"commit_on_decode_error"`
	CommitOnProcessError bool              `mapstructure:"commit_on_process_error"`
}

type KafkaTopicsConfig struct {
	AssetUploaded string `mapstructure:"asset_uploaded"`
	Stages        string `mapstructure:"stages"`
	AssetEvents   string `mapstructure:"asset_events"`
}

var globalConfig atomic.Pointer[Config]

// SetGlobalConfig 设置全局配置，仅在启动阶段调用
func SetGlobalConfig(cfg *Config) { globalConfig.Store(cfg) }

// GetGlobalConfig 获取全局配置
func GetGlobalConfig() *Config { return globalConfig.Load() }

// Load 加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("server.port", 8083)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("kafka.client_id", "encoding-service")
	v.SetDefault("kafka.group_id", "encoding-service-group")
	v.SetDefault("kafka.topics.asset_uploaded", "asset.uploaded")
	v.SetDefault("kafka.topics.stages", "encoding.stages")
	v.SetDefault("kafka.topics.asset_events", "asset.events")
	v.SetDefault("kafka.commit_on_decode_error", true)
	v.SetDefault("encoding.formats.progressive", true)
	v.SetDefault("encoding.formats.hls", true)
	v.SetDefault("encoding.formats.dash", true)
	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.queue_backend", "memory")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("storage.cleanup_on_hard_delete", true)

	// 设置环境变量前缀
	v.SetEnvPrefix("ENCODING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.normalize()
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default 返回仅包含默认值的配置，供测试与嵌入使用
func Default() *Config {
	c := &Config{}
	c.Encoding.Formats = FormatsConfig{Progressive: true, HLS: true, DASH: true}
	c.normalize()
	return c
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	// 兼容不同的密钥字段
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8083
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "encoding.db"
	}

	enc := &c.Encoding
	if enc.FFmpegPath == "" {
		enc.FFmpegPath = "ffmpeg"
	}
	if enc.FFprobePath == "" {
		enc.FFprobePath = "ffprobe"
	}
	if enc.Threads < 0 {
		enc.Threads = 0
	}
	if enc.AudioCodec == "" {
		enc.AudioCodec = "aac"
	}
	if enc.AudioBitrate == "" {
		enc.AudioBitrate = "128k"
	}
	if enc.SegmentDuration <= 0 {
		enc.SegmentDuration = 10
	}
	if enc.EncodeTimeout <= 0 {
		enc.EncodeTimeout = time.Hour
	}
	if enc.ProbeTimeout <= 0 {
		enc.ProbeTimeout = 60 * time.Second
	}
	if enc.ImageTimeout <= 0 {
		enc.ImageTimeout = 300 * time.Second
	}
	if enc.ParallelProfiles <= 0 {
		enc.ParallelProfiles = 1
	}
	if enc.ProgressInterval <= 0 {
		enc.ProgressInterval = 5 * time.Second
	}
	if len(enc.Profiles) == 0 {
		enc.Profiles = DefaultProfiles()
	}
	for i := range enc.Profiles {
		p := &enc.Profiles[i]
		if p.Codec == "" {
			p.Codec = "libx264"
		}
		if p.Profile == "" {
			p.Profile = "main"
		}
		if p.Framerate <= 0 {
			p.Framerate = 30
		}
	}

	if c.Thumbnail.MaxWidth <= 0 {
		c.Thumbnail.MaxWidth = 1280
	}
	if c.Thumbnail.MaxHeight <= 0 {
		c.Thumbnail.MaxHeight = 720
	}
	if c.Thumbnail.Format == "" {
		c.Thumbnail.Format = "jpg"
	}
	if c.Thumbnail.Quality <= 0 || c.Thumbnail.Quality > 100 {
		c.Thumbnail.Quality = 90
	}
	if c.Thumbnail.Time <= 0 {
		c.Thumbnail.Time = 5
	}

	if c.Sprite.Frames <= 0 {
		c.Sprite.Frames = 100
	}
	if c.Sprite.Columns <= 0 {
		c.Sprite.Columns = 10
	}
	if c.Sprite.Rows <= 0 {
		c.Sprite.Rows = 10
	}
	if c.Sprite.FrameWidth <= 0 {
		c.Sprite.FrameWidth = 160
	}
	if c.Sprite.FrameHeight <= 0 {
		c.Sprite.FrameHeight = 90
	}
	if c.Sprite.Format == "" {
		c.Sprite.Format = "jpg"
	}
	if c.Sprite.Quality <= 0 || c.Sprite.Quality > 100 {
		c.Sprite.Quality = 85
	}

	st := &c.Storage
	if st.BasePath == "" {
		st.BasePath = "storage"
	}
	if st.TempDir == "" {
		st.TempDir = "/tmp/encoding"
	}
	if st.LockDir == "" {
		st.LockDir = st.TempDir + "/locks"
	}
	if st.LockTTL <= 0 {
		st.LockTTL = enc.EncodeTimeout + 10*time.Minute
	}
	l := &st.Layout
	if l.Originals == "" {
		l.Originals = "assets/{assetId}/original"
	}
	if l.Progressive == "" {
		l.Progressive = "assets/{assetId}/mp4"
	}
	if l.HLS == "" {
		l.HLS = "assets/{assetId}/hls"
	}
	if l.DASH == "" {
		l.DASH = "assets/{assetId}/dash"
	}
	if l.Thumbnails == "" {
		l.Thumbnails = "assets/{assetId}/thumbnails"
	}
	if l.Sprites == "" {
		l.Sprites = "assets/{assetId}/sprites"
	}
	if l.Manifests == "" {
		l.Manifests = "assets/{assetId}"
	}

	p := &c.Pipeline
	if p.EncodeAttempts <= 0 {
		p.EncodeAttempts = 3
	}
	if p.ThumbnailAttempts <= 0 {
		p.ThumbnailAttempts = 1
	}
	if p.SpriteAttempts <= 0 {
		p.SpriteAttempts = 1
	}
	if p.ManifestAttempts <= 0 {
		p.ManifestAttempts = 1
	}
	if p.PublishAttempts <= 0 {
		p.PublishAttempts = 3
	}
	if p.RetryBackoff <= 0 {
		p.RetryBackoff = 30 * time.Second
	}
	if p.LockRetryDelay <= 0 {
		p.LockRetryDelay = 15 * time.Second
	}

	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = 2
	}
	if c.Worker.QueueCapacity <= 0 {
		c.Worker.QueueCapacity = c.Worker.Concurrency * 50
	}
	if c.Worker.QueueBackend == "" {
		c.Worker.QueueBackend = "memory"
	}
	if c.Worker.WorkerID == "" {
		c.Worker.WorkerID = "encoding-worker"
	}
	if c.Worker.ShutdownGracePeriod == 0 {
		c.Worker.ShutdownGracePeriod = 10 * time.Second
	}

	if c.Scheduler.RecoveryInterval <= 0 {
		c.Scheduler.RecoveryInterval = time.Minute
	}
	if c.Scheduler.StallTimeout <= 0 {
		c.Scheduler.StallTimeout = enc.EncodeTimeout + 15*time.Minute
	}
	if c.Scheduler.BatchSize <= 0 {
		c.Scheduler.BatchSize = 50
	}

	if c.GRPCServer.Host == "" {
		c.GRPCServer.Host = "0.0.0.0"
	}
	if c.GRPCServer.Port == 0 {
		c.GRPCServer.Port = 9092
	}
	if c.ServiceRegistry.ServiceName == "" {
		c.ServiceRegistry.ServiceName = "encoding-service"
	}
	if c.ServiceRegistry.DialTimeout == 0 {
		c.ServiceRegistry.DialTimeout = 5 * time.Second
	}
	if c.ServiceRegistry.TTL == 0 {
		c.ServiceRegistry.TTL = 30 * time.Second
	}
	if c.ServiceRegistry.RefreshInterval == 0 {
		c.ServiceRegistry.RefreshInterval = 10 * time.Second
	}
	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "encoding-service"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "encoding-service-group"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
}

func (c *Config) validate() error {
	seen := make(map[string]struct{}, len(c.Encoding.Profiles))
	for _, p := range c.Encoding.Profiles {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("encoding profile name is required")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate encoding profile %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		if p.Width <= 0 || p.Height <= 0 {
			return fmt.Errorf("encoding profile %q has invalid resolution %dx%d", p.Name, p.Width, p.Height)
		}
	}
	switch c.Worker.QueueBackend {
	case "memory", "kafka":
	default:
		return fmt.Errorf("unsupported worker.queue_backend %q", c.Worker.QueueBackend)
	}
	if c.Worker.QueueBackend == "kafka" && !c.Kafka.Enabled {
		return fmt.Errorf("worker.queue_backend=kafka requires kafka.enabled")
	}
	return nil
}

// DefaultProfiles 默认的编码档位目录
func DefaultProfiles() []ProfileConfig {
	return []ProfileConfig{
		{Name: "360p", Width: 640, Height: 360, Framerate: 30, Bitrate: "800k", Codec: "libx264", Profile: "baseline", Level: "3.0"},
		{Name: "480p", Width: 854, Height: 480, Framerate: 30, Bitrate: "1400k", Codec: "libx264", Profile: "main", Level: "3.1"},
		{Name: "720p", Width: 1280, Height: 720, Framerate: 30, Bitrate: "2800k", Codec: "libx264", Profile: "main", Level: "3.1"},
		{Name: "1080p", Width: 1920, Height: 1080, Framerate: 30, Bitrate: "5M", Codec: "libx264", Profile: "high", Level: "4.1"},
		{Name: "2160p", Width: 3840, Height: 2160, Framerate: 30, Bitrate: "16M", Codec: "libx264", Profile: "high", Level: "5.1"},
	}
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StageAttempts 返回某阶段的最大尝试次数
func (c *PipelineConfig) StageAttempts(stage string) int {
	switch stage {
	case "encode":
		return c.EncodeAttempts
	case "thumbnail":
		return c.ThumbnailAttempts
	case "sprite":
		return c.SpriteAttempts
	case "manifest":
		return c.ManifestAttempts
	case "publish":
		return c.PublishAttempts
	default:
		return 1
	}
}
