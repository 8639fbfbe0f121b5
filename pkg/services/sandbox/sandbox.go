// Package sandbox serves a local stand-in for the robot order shop: the
// order table, the order single-page app and the robot part images. It
// reproduces the shop's quirks (consent dialog, random server errors, a
// reload that clears the form) so the robot can be exercised offline.
package sandbox

import (
	"bytes"
	"context"
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"html/template"
	"image/color"
	"net/http"
	"strconv"
	"strings"
	"time"

	"orderbot/pkg/models"
	"orderbot/pkg/services/orders"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed assets/order.html
var assets embed.FS

// Part is one selectable head or body style.
type Part struct {
	ID   string
	Name string
}

// Parts lists the styles the shop sells, for heads and bodies alike.
var Parts = []Part{
	{"1", "Roll-a-thor"},
	{"2", "Peanut crusher"},
	{"3", "D.A.V.E"},
	{"4", "Andy Roid"},
	{"5", "Spanner mate"},
	{"6", "Drillbit 2000"},
}

var partColors = []color.NRGBA{
	{R: 0xd9, G: 0x53, B: 0x4f, A: 0xff},
	{R: 0xf0, G: 0xad, B: 0x4e, A: 0xff},
	{R: 0x5c, G: 0xb8, B: 0x5c, A: 0xff},
	{R: 0x5b, G: 0xc0, B: 0xde, A: 0xff},
	{R: 0x42, G: 0x8b, B: 0xca, A: 0xff},
	{R: 0x77, G: 0x55, B: 0xaa, A: 0xff},
}

// Config controls the sandbox shop.
type Config struct {
	// ErrorRate is the probability, 0 to 1, that a submit shows a server error.
	ErrorRate float64
	Orders    []models.Order
}

// DefaultOrders returns the order table served when none is configured.
func DefaultOrders() []models.Order {
	out := make([]models.Order, 0, 10)
	for i := 1; i <= 10; i++ {
		out = append(out, models.Order{
			Number:  strconv.Itoa(i),
			Head:    strconv.Itoa((i-1)%6 + 1),
			Body:    strconv.Itoa((i+2)%6 + 1),
			Legs:    (i+4)%6 + 1,
			Address: fmt.Sprintf("Address %d, Robot Street", 100+i),
		})
	}
	return out
}

// NewRouter builds the gin engine for the sandbox shop.
func NewRouter(cfg Config, logger *zap.Logger) (*gin.Engine, error) {
	if cfg.ErrorRate < 0 || cfg.ErrorRate > 1 {
		return nil, fmt.Errorf("error rate %v out of range [0,1]", cfg.ErrorRate)
	}
	if cfg.Orders == nil {
		cfg.Orders = DefaultOrders()
	}

	tmpl, err := template.ParseFS(assets, "assets/order.html")
	if err != nil {
		return nil, fmt.Errorf("parse order page: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger.Named("sandbox")))
	r.SetHTMLTemplate(tmpl)

	r.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "order.html", gin.H{
			"Parts":     Parts,
			"ErrorRate": cfg.ErrorRate,
		})
	})
	r.GET("/orders.csv", ordersTable(cfg.Orders))
	r.GET("/parts/:kind/:file", partImage)
	return r, nil
}

func ordersTable(rows []models.Order) gin.HandlerFunc {
	return func(c *gin.Context) {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{orders.ColumnNumber, orders.ColumnHead, orders.ColumnBody, orders.ColumnLegs, orders.ColumnAddress})
		for _, o := range rows {
			_ = w.Write([]string{o.Number, o.Head, o.Body, strconv.Itoa(o.Legs), o.Address})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
	}
}

// partImage renders a flat placeholder for a head, body or legs part.
func partImage(c *gin.Context) {
	kind := c.Param("kind")
	id, ok := strings.CutSuffix(c.Param("file"), ".png")
	n, err := strconv.Atoi(id)
	if !ok || err != nil || n < 1 || n > len(partColors) {
		c.Status(http.StatusNotFound)
		return
	}

	var w, h int
	switch kind {
	case "heads":
		w, h = 200, 120
	case "bodies":
		w, h = 200, 180
	case "legs":
		w, h = 200, 160
	default:
		c.Status(http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.New(w, h, partColors[n-1]), imaging.PNG); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

// Serve runs the sandbox on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, cfg Config, logger *zap.Logger) error {
	router, err := NewRouter(cfg, logger)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Sandbox shop listening", zap.String("addr", addr), zap.Float64("error_rate", cfg.ErrorRate))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
