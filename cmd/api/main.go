package main

import (
	"context"
	"log"

	"github.com/CodeReveur/vet-connect-sub001/internal/db"
	"github.com/CodeReveur/vet-connect-sub001/internal/platform/config"
	phttp "github.com/CodeReveur/vet-connect-sub001/internal/platform/http"
	"github.com/CodeReveur/vet-connect-sub001/internal/platform/notify"

	credhttp "github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/http"
	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/service"
)

func main() {
	cfg := config.Load()

	dbpool := db.MustOpen(cfg.PGDSN)
	defer dbpool.Close()

	mailer := notify.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	credModule := credhttp.NewModulePG(dbpool, mailer)
	app := phttp.NewServer(phttp.Options{AppName: "vet-connect"}, credModule)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.NewSweeper(credModule.TokenStore(), cfg.SweepInterval).Run(ctx)

	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
