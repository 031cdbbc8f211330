package component

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	appsvc "encoding-service/ddd/application/app"
	"encoding-service/ddd/application/cqe"
	"encoding-service/pkg/config"
	"encoding-service/pkg/errno"
	pkgkafka "encoding-service/pkg/kafka"
	"encoding-service/pkg/logger"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/task"
)

func init() {
	manager.RegisterComponentPlugin(&AssetUploadedConsumerPlugin{})
}

type AssetUploadedConsumerPlugin struct{}

func (p *AssetUploadedConsumerPlugin) Name() string { return "assetUploadedConsumer" }

// MustCreateComponent kafka 关闭时不创建
func (p *AssetUploadedConsumerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	if cfg == nil || !cfg.Kafka.Enabled || cfg.Kafka.Topics.AssetUploaded == "" {
		logger.Infof("Asset uploaded consumer disabled")
		return nil
	}
	var app appsvc.PipelineApp
	if deps != nil {
		if v, ok := deps.PipelineApp.(appsvc.PipelineApp); ok {
			app = v
		}
	}
	if app == nil {
		app = appsvc.DefaultPipelineApp()
	}
	return &assetUploadedConsumer{
		app:             app,
		client:          pkgkafka.DefaultClient(),
		topic:           cfg.Kafka.Topics.AssetUploaded,
		group:           cfg.Kafka.GroupID,
		commitOnDecode:  cfg.Kafka.CommitOnDecodeError,
		commitOnProcess: cfg.Kafka.CommitOnProcessError,
	}
}

type assetUploadedConsumer struct {
	app             appsvc.PipelineApp
	client          *pkgkafka.Client
	topic           string
	group           string
	commitOnDecode  bool
	commitOnProcess bool

	wg sync.WaitGroup
}

func (c *assetUploadedConsumer) Start() error {
	task.Register(&backgroundTask{name: c.GetName(), startFunc: c.run, stopFunc: c.stop})
	return nil
}

func (c *assetUploadedConsumer) Stop() error     { return nil }
func (c *assetUploadedConsumer) GetName() string { return "assetUploadedConsumer" }

func (c *assetUploadedConsumer) run(ctx context.Context) error {
	reader := c.client.Reader(c.topic, c.group)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer reader.Close()
		logger.Infof("Kafka consumer started topic=%s group=%s", c.topic, c.group)
		for {
			msg, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warnf("Kafka fetch error topic=%s error=%v", c.topic, err)
				time.Sleep(time.Second)
				continue
			}
			if c.handle(ctx, msg.Value) {
				if err := reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
					logger.Warnf("Kafka commit failed topic=%s offset=%d error=%v", c.topic, msg.Offset, err)
				}
			}
		}
	}()
	return nil
}

func (c *assetUploadedConsumer) stop() error {
	c.wg.Wait()
	return nil
}

// handle 返回是否提交位点
func (c *assetUploadedConsumer) handle(ctx context.Context, value []byte) bool {
	var ev cqe.AssetUploadedEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		logger.Warnf("Asset uploaded message unmarshal error error=%v", err)
		return c.commitOnDecode
	}
	logger.Infof("Asset uploaded message received asset_uuid=%s source=%s", ev.AssetUUID, ev.SourcePath)

	_, err := c.app.RegisterAsset(ctx, ev.ToRegisterReq())
	switch {
	case err == nil:
		return true
	case errors.Is(err, errno.ErrPipelineInFlight), errors.Is(err, errno.ErrAssetDeleted):
		logger.Infof("Asset uploaded message skipped asset_uuid=%s reason=%v", ev.AssetUUID, err)
		return true
	default:
		code, _ := errno.Decode(err)
		logger.Errorf("Register uploaded asset failed asset_uuid=%s code=%d error=%v", ev.AssetUUID, code, err)
		return c.commitOnProcess
	}
}
