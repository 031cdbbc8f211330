package main

import (
	"encoding-service/app"
	"encoding-service/pkg/observability"
)

// worker 进程只消费阶段任务，不跑恢复调度
func main() {
	observability.StartProfiling("encoding-worker")
	app.Run(app.RoleWorker)
}
