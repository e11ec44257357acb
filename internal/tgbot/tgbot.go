package tgbot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/KotFed0t/fund_portfolio_tracker/config"
	"github.com/KotFed0t/fund_portfolio_tracker/data/session"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/converter/telebotConverter"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/transport/telegram"
	customMW "github.com/KotFed0t/fund_portfolio_tracker/internal/transport/telegram/middleware"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type TGBot struct {
	bot     *tele.Bot
	ctrl    *telegram.Controller
	session Session
}

func New(cfg *config.Config, ctrl *telegram.Controller, session Session) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl, session: session}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle(tele.OnText, func(c tele.Context) error {
		// plain text is only meaningful when the chat is in the middle of a dialog
		ctx := utils.CreateCtxWithRqID(c)
		rqID := utils.GetRequestIDFromCtx(ctx)
		chatSession, err := b.session.GetSession(ctx, strconv.FormatInt(c.Chat().ID, 10))
		if err != nil && !errors.Is(err, session.ErrNotFound) {
			slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
			return c.Send("something went wrong...")
		}

		c.Set("session", chatSession)

		switch chatSession.Action {
		case model.ExpectingPortfolioName:
			return b.ctrl.ProcessPortfolioCreation(c)
		default:
			return c.Send("Enter one of the commands first, see /start")
		}
	})

	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/help", b.ctrl.Start)

	b.bot.Handle("/funds", b.ctrl.ListFunds)
	b.bot.Handle("/fund", b.ctrl.FundInfo)

	b.bot.Handle("/portfolios", b.ctrl.ListPortfolios)
	b.bot.Handle("/new", b.ctrl.InitPortfolioCreation)
	b.bot.Handle("/use", b.ctrl.UsePortfolio)
	b.bot.Handle(&tele.Btn{Unique: telebotConverter.UsePortfolioUnique}, b.ctrl.UsePortfolioCallback)

	b.bot.Handle("/value", b.ctrl.PortfolioValue)
	b.bot.Handle("/top", b.ctrl.TopHoldings)
	b.bot.Handle("/performance", b.ctrl.Performance)
	b.bot.Handle("/gains", b.ctrl.RealizedGains)
	b.bot.Handle("/history", b.ctrl.History)

	b.bot.Handle("/buy", b.ctrl.Buy)
	b.bot.Handle("/sell", b.ctrl.Sell)

	b.bot.Handle("/report", b.ctrl.Report)
}
