package main

import (
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"strconv"
	"time"

	"whitepalace/src/boot"
	"whitepalace/src/config"
	"whitepalace/src/middlewares"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
)

const apiPrefix string = "/api"

// bookabledate accepts today or any later calendar date.
var bookableDateValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	parsed, err := time.Parse(config.DATE_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	today, _ := time.Parse(config.DATE_PARSE_FORMAT, time.Now().Format(config.DATE_PARSE_FORMAT))
	return !parsed.Before(today)
}

var clockValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	clock, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	_, err := time.Parse(config.CLOCK_PARSE_FORMAT, clock)
	return err == nil
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
		v.RegisterValidation("clocktime", clockValidatorFunc)
	}
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	apiv1 := g.Group(apiPrefix)
	return apiv1
}

func setupRouter() *gin.Engine {
	registerValidators()
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		mm := os.Getenv("MAINTENANCE_MODE")
		atoi, err := strconv.ParseBool(mm)
		if err == nil && atoi {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, err.Error())
			return
		}
	})
	return g
}

func initLogger() {
	cwd, _ := os.Getwd()
	os.MkdirAll(path.Join(cwd, "logs"), 0o755)
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}))
}

func registerRoutes(router *gin.Engine) {
	authHandlers(router)
	menuHandlers(router)
	orderHandlers(router)
	reservationHandlers(router)
	paymentHandlers(router)
	stripeWebhookRoute(router)
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()

	boot.InitDb()
	sched := boot.InitScheduler()
	if sched != nil {
		defer sched.Shutdown()
	}

	router := setupRouter()

	appHost := os.Getenv("APP_HOST")
	if apiEnv == "local" || appHost == "" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization", "Stripe-Signature")
		cc.AllowOrigins = []string{appHost}
		cc.AllowCredentials = true
		router.Use(cors.New(cc))
	}

	router = maintenanceModeMiddleware(router)

	registerRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %s\n", err.Error())
	}
}
