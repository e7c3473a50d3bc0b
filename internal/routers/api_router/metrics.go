package api_router

import (
	"expvar"
	"fmt"
	"sync"

	"github.com/haierkeys/issue-note-service/internal/app"

	"github.com/gin-gonic/gin"
)

var (
	expvarOnce sync.Once
	expvarApp  struct {
		sync.RWMutex
		app *app.App
	}
)

// PublishExpvar 将当前容器的运行状态注册到 expvar
// 配置热重载会重建容器，expvar 名称只能注册一次，所以只替换引用
func PublishExpvar(a *app.App) {
	expvarApp.Lock()
	expvarApp.app = a
	expvarApp.Unlock()

	expvarOnce.Do(func() {
		expvar.Publish("issue_note", expvar.Func(func() interface{} {
			expvarApp.RLock()
			defer expvarApp.RUnlock()
			current := expvarApp.app
			if current == nil {
				return nil
			}
			return map[string]interface{}{
				"version":    current.Version().Version,
				"uptime":     current.Uptime().Seconds(),
				"workerPool": current.WorkerPool().GetMetrics(),
				"channel":    current.Channel.Name(),
			}
		}))
	})
}

// Expvar 导出系统运行时指标
// 将 expvar 导出的 JSON 数据写入响应
func Expvar(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	first := true
	report := func(key string, value interface{}) {
		if !first {
			fmt.Fprintf(c.Writer, ",\n")
		}
		first = false
		if str, ok := value.(string); ok {
			fmt.Fprintf(c.Writer, "%q: %q", key, str)
		} else {
			fmt.Fprintf(c.Writer, "%q: %v", key, value)
		}
	}

	fmt.Fprintf(c.Writer, "{\n")
	expvar.Do(func(kv expvar.KeyValue) {
		report(kv.Key, kv.Value)
	})
	fmt.Fprintf(c.Writer, "\n}\n")
}
