package http

import (
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"encoding-service/ddd/application/app"
	"encoding-service/ddd/application/cqe"
	"encoding-service/pkg/assert"
	"encoding-service/pkg/errno"
	"encoding-service/pkg/manager"
	"encoding-service/pkg/restapi"
)

var (
	assetControllerOnce      sync.Once
	singletonAssetController AssetController
)

func init() {
	manager.RegisterControllerPlugin(&AssetControllerPlugin{})
}

type AssetControllerPlugin struct{}

func (p *AssetControllerPlugin) Name() string {
	return "assetControllerPlugin"
}

func (p *AssetControllerPlugin) MustCreateController() manager.Controller {
	assert.NotCircular()
	assetControllerOnce.Do(func() {
		singletonAssetController = NewAssetController(app.DefaultPipelineApp())
	})
	assert.NotNil(singletonAssetController)
	return singletonAssetController
}

type AssetController interface {
	manager.Controller
}

type assetControllerImpl struct {
	pipelineApp app.PipelineApp
}

func NewAssetController(pipelineApp app.PipelineApp) AssetController {
	return &assetControllerImpl{pipelineApp: pipelineApp}
}

func (c *assetControllerImpl) RegisterRoutes(r gin.IRouter) {
	assets := r.Group("/assets")
	{
		assets.POST("", c.RegisterAsset)
		assets.GET("/:uuid", c.GetAsset)
		assets.DELETE("/:uuid", c.DeleteAsset)
		assets.POST("/:uuid/pipeline", c.StartPipeline)
		assets.GET("/:uuid/renditions", c.ListRenditions)
		assets.GET("/:uuid/logs", c.ListLogs)
	}
	attachments := r.Group("/attachments")
	{
		attachments.POST("", c.AttachAsset)
		attachments.GET("", c.ListAttachments)
	}
}

func (c *assetControllerImpl) RegisterAsset(ctx *gin.Context) {
	var req cqe.RegisterAssetReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	resp, err := c.pipelineApp.RegisterAsset(ctx.Request.Context(), &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

func (c *assetControllerImpl) GetAsset(ctx *gin.Context) {
	resp, err := c.pipelineApp.GetAsset(ctx.Request.Context(), ctx.Param("uuid"))
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

// StartPipeline 请求体可为空，此时按默认档位非强制编码
func (c *assetControllerImpl) StartPipeline(ctx *gin.Context) {
	var req cqe.StartPipelineReq
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
			return
		}
	}
	req.AssetUUID = ctx.Param("uuid")
	resp, err := c.pipelineApp.StartPipeline(ctx.Request.Context(), &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

func (c *assetControllerImpl) ListRenditions(ctx *gin.Context) {
	resp, err := c.pipelineApp.ListRenditions(ctx.Request.Context(), ctx.Param("uuid"))
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

func (c *assetControllerImpl) ListLogs(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	resp, err := c.pipelineApp.ListLogs(ctx.Request.Context(), ctx.Param("uuid"), limit)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

func (c *assetControllerImpl) DeleteAsset(ctx *gin.Context) {
	hard, _ := strconv.ParseBool(ctx.DefaultQuery("hard", "false"))
	if err := c.pipelineApp.DeleteAsset(ctx.Request.Context(), ctx.Param("uuid"), hard); err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, gin.H{"asset_uuid": ctx.Param("uuid"), "hard": hard})
}

func (c *assetControllerImpl) AttachAsset(ctx *gin.Context) {
	var req cqe.AttachAssetReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	resp, err := c.pipelineApp.AttachAsset(ctx.Request.Context(), &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}

func (c *assetControllerImpl) ListAttachments(ctx *gin.Context) {
	resp, err := c.pipelineApp.ListAttachments(ctx.Request.Context(), ctx.Query("owner_type"), ctx.Query("owner_id"))
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}
	restapi.Success(ctx, resp)
}
