package bancho

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gobancho-project/gobancho/internal/packet"
)

const (
	tokenRequestHeader  = "osu-token"
	tokenResponseHeader = "cho-token"

	// maxRequestBody bounds a single client POST. Well beyond anything
	// a real client sends in one flush.
	maxRequestBody = 1 << 20
)

// Endpoint exposes the protocol over a single HTTP route. All traffic,
// login included, arrives as POSTs to "/".
type Endpoint struct {
	handlers   *Handlers
	dispatcher *Dispatcher
	indexPage  string
}

func NewEndpoint(h *Handlers, d *Dispatcher) *Endpoint {
	return &Endpoint{
		handlers:   h,
		dispatcher: d,
		indexPage:  h.cfg.ServerName + " - running gobancho",
	}
}

// Register attaches the endpoint routes to a gin engine.
func (e *Endpoint) Register(r *gin.Engine) {
	r.GET("/", e.index)
	r.POST("/", e.handle)
}

func (e *Endpoint) index(c *gin.Context) {
	c.String(http.StatusOK, e.indexPage)
}

func (e *Endpoint) handle(c *gin.Context) {
	if !strings.HasPrefix(c.GetHeader("User-Agent"), "osu!") {
		c.String(http.StatusOK, e.indexPage)
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBody))
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	token := c.GetHeader(tokenRequestHeader)
	if token == "" {
		choToken, resp := e.handlers.Login(c.Request.Context(), body, c.Request.Header)
		c.Header(tokenResponseHeader, choToken)
		c.Data(http.StatusOK, "application/octet-stream", resp)
		return
	}

	s := e.handlers.Registry().GetToken(token)
	if s == nil {
		// Unknown token, most likely a server restart. Tell the client
		// to log back in.
		c.Data(http.StatusOK, "application/octet-stream", packet.ServerRestart(0))
		return
	}

	e.dispatcher.Process(c.Request.Context(), s, body)
	c.Data(http.StatusOK, "application/octet-stream", s.Dequeue())
}
