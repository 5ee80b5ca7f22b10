package main

import (
	"flag"
	"fmt"

	"event-platform/app/event/api/internal/config"
	"event-platform/app/event/api/internal/cron"
	"event-platform/app/event/api/internal/handler"
	"event-platform/app/event/api/internal/logic/event"
	"event-platform/app/event/api/internal/svc"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/event-api.yaml", "配置文件路径")

func main() {
	flag.Parse()

	// 1. 加载配置
	var c config.Config
	conf.MustLoad(*configFile, &c)

	// 2. 初始化 ServiceContext
	ctx := svc.NewServiceContext(c)
	defer ctx.Close()

	// 3. 启动提醒/反馈任务的延迟队列
	ctx.Queue.Start()
	defer ctx.Queue.Stop()

	// 4. 启动定时扫描：定时发布 + 审计归档
	lifecycleCron := cron.NewLifecycleCron(ctx.Redis, ctx.Store, event.AutoPublish(ctx), ctx.Archiver, c.Cron)
	lifecycleCron.Start()
	defer lifecycleCron.Stop()

	// 5. 创建 REST 服务
	server := rest.MustNewServer(c.RestConf)
	defer server.Stop()
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting event api server at %s:%d...\n", c.Host, c.Port)
	logx.Infof("活动服务 API 启动: %s:%d", c.Host, c.Port)
	server.Start()
}

// 活动服务 API 入口
// 说明：
//   event-api 负责活动生命周期、名额与候补、提醒/反馈任务、站内通知与审计归档
//
// 启动命令：
//   go run event.go -f etc/event-api.yaml
