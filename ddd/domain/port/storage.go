package port

// StoragePaths 资产存储布局，返回值均为相对 BasePath 的路径
type StoragePaths interface {
	Root(assetUUID string) string
	ProgressiveFile(assetUUID, profile string) string
	HLSDir(assetUUID, profile string) string
	HLSRoot(assetUUID string) string
	DASHDir(assetUUID, profile string) string
	DASHRoot(assetUUID string) string
	ThumbnailFile(assetUUID, ext string) string
	SpriteFile(assetUUID, ext string) string
	ManifestDir(assetUUID string) string
	OriginalsDir(assetUUID string) string
	// Preserved 原始文件目录与源文件，清理和发布均不触碰
	Preserved(assetUUID, sourcePath string) []string
	// Subtrees 资产拥有的全部产物目录，可能包含原始文件目录的父目录
	Subtrees(assetUUID string) []string
	// Abs 转为绝对路径
	Abs(rel string) string
	// Rel 将绝对路径转回存储相对路径
	Rel(abs string) string
}

// LocalStorage 本地文件系统存储
type LocalStorage interface {
	StoragePaths
	// Exists 文件存在且非空
	Exists(rel string) bool
	Size(rel string) int64
	EnsureDir(rel string) error
	// WriteAtomic 原子写入文件
	WriteAtomic(rel string, data []byte) error
	ReadFile(rel string) ([]byte, error)
	RemoveAll(rel string) error
	// RemoveAllExcept 删除 rel 下除 keep 子树以外的内容
	RemoveAllExcept(rel string, keep ...string) error
}
