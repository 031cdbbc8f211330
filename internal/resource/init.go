package resource

import "encoding-service/pkg/manager"

func init() {
	// 注册顺序即打开顺序，关闭时逆序
	manager.RegisterResourcePlugin(&DatabaseResourcePlugin{})
	manager.RegisterResourcePlugin(&RedisResourcePlugin{})
	manager.RegisterResourcePlugin(&KafkaResourcePlugin{})
	manager.RegisterResourcePlugin(&MinioResourcePlugin{})
}
