package main

import (
	"encoding-service/app"
	"encoding-service/pkg/observability"
)

// scheduler 进程提供 API、消费上传消息并恢复卡住的运行，阶段任务交给 kafka 上的 worker
func main() {
	observability.StartProfiling("encoding-scheduler")
	app.Run(app.RoleScheduler)
}
