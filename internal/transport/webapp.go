package transport

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/internal/presentation"
)

// SubscribedCookie remembers a confirmed subscription in the browser.
const SubscribedCookie = "glow_subscribed"

const subscribedCookieMaxAge = 365 * 24 * 60 * 60

func (h *handler) mountWebApp(r *gin.Engine) {
	web := r.Group("/", gin.CustomRecovery(h.recoverPage))
	web.GET("/", h.home)
	web.GET("/app/reset", h.home)
	web.POST("/app/analyze", h.uploadPhoto)
	web.POST("/app/unlock", h.unlock)
}

func (h *handler) home(c *gin.Context) {
	v := h.deps.App.Reset(h.identity(c), subscribedCookie(c))
	h.render(c, v)
}

func (h *handler) uploadPhoto(c *gin.Context) {
	id := h.identity(c)
	remembered := subscribedCookie(c)

	if !h.allow() {
		v := presentation.NewView(remembered)
		v.InitData = id.InitData
		v.Start()
		v.Fail(apperrors.MsgQuotaExceeded, true)
		h.render(c, v)
		return
	}

	photo, err := formFile(c, "photo")
	if err != nil {
		h.log.WithError(err).WithField("request_id", id.RequestID).Warn("No usable photo in upload")
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	v := h.deps.App.Upload(ctx, id, remembered, photo)
	h.render(c, v)
}

func (h *handler) unlock(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	v := h.deps.App.Unlock(ctx, h.identity(c), c.PostForm("result"))
	h.render(c, v)
}

// render writes v, remembering an unlocked subscription in a cookie.
func (h *handler) render(c *gin.Context, v *presentation.View) {
	if v.Subscribed {
		c.SetSameSite(http.SameSiteNoneMode)
		c.SetCookie(SubscribedCookie, "1", subscribedCookieMaxAge, "/", "", true, true)
	}

	var buf bytes.Buffer
	if err := h.deps.Renderer.Render(&buf, v); err != nil {
		panic(err)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// recoverPage is the render supervisor: any panic while handling a page
// shows the crash screen instead of a blank page.
func (h *handler) recoverPage(c *gin.Context, recovered any) {
	h.log.WithFields(logrus.Fields{
		"request_id": c.GetString(requestIDKey),
		"path":       c.Request.URL.Path,
		"panic":      recovered,
	}).Error("Recovered from panic while rendering page")

	var buf bytes.Buffer
	h.deps.Renderer.RenderCrash(&buf)
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", buf.Bytes())
	c.Abort()
}

func (h *handler) identity(c *gin.Context) presentation.Identity {
	initData := c.PostForm("init_data")
	if initData == "" {
		initData = c.GetHeader(InitDataHeader)
	}
	userID := c.PostForm("user_id")
	if userID == "" {
		userID = c.Query("user_id")
	}
	return presentation.Identity{
		InitData:  initData,
		UserID:    userID,
		RequestID: c.GetString(requestIDKey),
	}
}

func subscribedCookie(c *gin.Context) bool {
	v, err := c.Cookie(SubscribedCookie)
	return err == nil && v == "1"
}

func formFile(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("empty photo")
	}
	return data, nil
}
