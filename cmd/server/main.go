package main // main package for the attendance server executable

import (
    "context"
    "log"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"

    "github.com/iliyamo/staff-attendance/internal/config"
    "github.com/iliyamo/staff-attendance/internal/database"
    "github.com/iliyamo/staff-attendance/internal/handler"
    "github.com/iliyamo/staff-attendance/internal/notestore"
    "github.com/iliyamo/staff-attendance/internal/queue"
    "github.com/iliyamo/staff-attendance/internal/repository"
    "github.com/iliyamo/staff-attendance/internal/router"
    "github.com/iliyamo/staff-attendance/internal/watch"
)

func main() {
    // .env is optional; real deployments set the environment directly.
    if err := godotenv.Load(); err != nil {
        log.Printf("no .env file loaded: %v", err)
    }
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("mysql: %v", err)
    }
    defer db.Close()

    mdb, err := notestore.NewMongoDB(cfg.MongoURI, cfg.MongoDB)
    if err != nil {
        log.Fatalf("mongodb: %v", err)
    }
    defer func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = mdb.Close(ctx)
    }()

    initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
    notes, err := notestore.NewNoteStore(initCtx, mdb)
    cancelInit()
    if err != nil {
        log.Fatalf("notes store: %v", err)
    }

    // Redis backs the rate limiter, the response cache and the session
    // guard. All three degrade to pass-through when this is nil.
    rdb := config.NewRedisClient()

    users := repository.NewUserRepo(db)
    records := repository.NewAttendanceRepo(db)
    tokens := repository.NewTokenRepo(db)
    hub := watch.NewHub()

    go func() {
        if err := queue.StartAttendanceConsumer(); err != nil {
            log.Printf("attendance consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    e.HideBanner = true
    e.Use(echomw.Logger())
    e.Use(echomw.Recover())
    e.Use(echomw.CORS())

    router.Register(e, cfg, router.Handlers{
        Auth:       handler.NewAuthHandler(cfg, users, tokens, rdb),
        Session:    handler.NewSessionHandler(users, rdb),
        Attendance: handler.NewAttendanceHandler(users, records, hub, cfg.Timezone),
        Notes:      handler.NewNotesHandler(notes, cfg.Timezone),
        Admin:      handler.NewAdminHandler(cfg, users, records, tokens),
    }, rdb)

    log.Printf("starting on :%s (%s)", cfg.Port, cfg.Env)
    if err := e.Start(":" + cfg.Port); err != nil {
        log.Fatalf("server stopped: %v", err)
    }
}
