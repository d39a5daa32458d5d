// relying-demo is a small web application protected by an OAuth2
// authorization server. Every page load asks the client for a token; the
// first visit of a session walks the browser through the authorization
// round trip and comes back to the page it started on.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/browser"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/naotama2002/oauth2-relying-go/client"
	"github.com/naotama2002/oauth2-relying-go/internal/logging"
	"github.com/naotama2002/oauth2-relying-go/redisstore"
)

const sessionCookie = "relying_session"

type appConfig struct {
	Listen string         `mapstructure:"listen"`
	Log    logging.Config `mapstructure:"log"`

	OAuth struct {
		Flow                  string `mapstructure:"flow"`
		ClientID              string `mapstructure:"client_id"`
		ClientSecret          string `mapstructure:"client_secret"`
		ClientAuth            string `mapstructure:"client_auth"`
		TokenEndpoint         string `mapstructure:"token_endpoint"`
		AuthorizationEndpoint string `mapstructure:"authorization_endpoint"`
		RedirectURI           string `mapstructure:"redirect_uri"`
		Scope                 string `mapstructure:"scope"`
		Username              string `mapstructure:"username"`
		Password              string `mapstructure:"password"`
		Provider              string `mapstructure:"provider"`
	} `mapstructure:"oauth"`

	// Redis is optional; without an address every session gets an
	// in-memory store and tokens do not survive a restart.
	Redis redisstore.Config `mapstructure:"redis"`
}

func loadConfig(path string) (appConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("RELYING")
	v.AutomaticEnv()

	v.SetDefault("listen", "localhost:8080")
	v.SetDefault("oauth.flow", string(client.FlowServerSide))

	if err := v.ReadInConfig(); err != nil {
		return appConfig{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg appConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func (c appConfig) clientConfig() client.Config {
	return client.Config{
		AuthFlow:              client.AuthFlow(c.OAuth.Flow),
		ClientID:              c.OAuth.ClientID,
		ClientSecret:          c.OAuth.ClientSecret,
		ClientAuth:            client.ClientAuth(c.OAuth.ClientAuth),
		TokenEndpoint:         c.OAuth.TokenEndpoint,
		AuthorizationEndpoint: c.OAuth.AuthorizationEndpoint,
		RedirectURI:           c.OAuth.RedirectURI,
		Scope:                 c.OAuth.Scope,
		Username:              c.OAuth.Username,
		Password:              c.OAuth.Password,
		Provider:              client.Provider(c.OAuth.Provider),
	}
}

// app holds one store per browser session, mirroring how session-scoped
// state behaves in a classic web framework.
type app struct {
	cfg client.Config
	log *zap.Logger

	redis *redisstore.Store

	mu     sync.Mutex
	memory map[string]*client.MemoryStore
}

func newApp(cfg client.Config, redis *redisstore.Store, log *zap.Logger) *app {
	return &app{
		cfg:    cfg,
		log:    log,
		redis:  redis,
		memory: make(map[string]*client.MemoryStore),
	}
}

// session returns the store for the request's session, minting a session
// cookie on first contact.
func (a *app) session(c *gin.Context) client.Store {
	sid, err := c.Cookie(sessionCookie)
	if err != nil || sid == "" {
		sid = uuid.NewString()
		c.SetCookie(sessionCookie, sid, int((24 * time.Hour).Seconds()), "/", "", false, true)
	}

	if a.redis != nil {
		return a.redis.WithNamespace(sid)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	st, ok := a.memory[sid]
	if !ok {
		st = client.NewMemoryStore()
		a.memory[sid] = st
	}
	return st
}

func (a *app) newClient(st client.Store) (*client.Client, error) {
	return client.New(a.cfg, client.WithStore(st), client.WithLogger(a.log))
}

// handleIndex is the protected page. It acquires a token for the current
// request and either renders it or sends the browser on the authorization
// round trip.
func (a *app) handleIndex(c *gin.Context) {
	st := a.session(c)
	cl, err := a.newClient(st)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	res, err := cl.Token(c.Request.Context(), client.RequestFromHTTP(c.Request))
	if err != nil {
		a.log.Error("token acquisition failed", zap.Error(err))
		status := http.StatusBadGateway
		if client.IsKind(err, client.KindAuthServer) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if res.Redirected() {
		c.Redirect(http.StatusFound, res.RedirectURL)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "authorized",
		"access_token": res.AccessToken,
		"identity":     string(cl.Identity()),
	})
}

// handleAuthorized serves the configured redirect URI. It hands the browser
// back to the page that started the flow; that page then performs the code
// exchange on its next load.
func (a *app) handleAuthorized(c *gin.Context) {
	st := a.session(c)

	target, err := client.Authorized(c.Request.Context(), st, client.RequestFromHTTP(c.Request))
	if err != nil {
		a.log.Warn("authorization callback rejected", zap.Error(err))
		status := http.StatusBadRequest
		if client.IsKind(err, client.KindAuthServer) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Redirect(http.StatusFound, target)
}

// handleShareToken deposits an externally obtained token for an identity, so
// a later page load finds it in the cache.
func (a *app) handleShareToken(c *gin.Context) {
	var req struct {
		Identity string       `json:"identity" binding:"required"`
		Token    client.Token `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := a.session(c)
	if err := client.ShareToken(c.Request.Context(), st, client.Identity(req.Identity), &req.Token); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

func (a *app) router(log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/", a.handleIndex)
	router.GET("/authorized", a.handleAuthorized)
	router.POST("/share-token", a.handleShareToken)

	return router
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	open := flag.Bool("open", false, "open the application in the local browser")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	clientCfg := cfg.clientConfig()
	if err := clientCfg.Validate(); err != nil {
		log.Fatal("invalid OAuth configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var redis *redisstore.Store
	if cfg.Redis.Addr != "" {
		redis, err = redisstore.New(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redis.Close() }()
		log.Info("using Redis token store", zap.String("addr", cfg.Redis.Addr))
	} else {
		log.Info("using in-memory token stores; tokens will not survive a restart")
	}

	a := newApp(clientCfg, redis, log)
	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: a.router(log),
	}

	go func() {
		log.Info("starting relying application", zap.String("addr", cfg.Listen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	if *open {
		if err := browser.OpenURL("http://" + cfg.Listen + "/"); err != nil {
			log.Warn("failed to open browser", zap.Error(err))
		}
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}
