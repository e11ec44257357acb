package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/KotFed0t/fund_portfolio_tracker/config"
	"github.com/KotFed0t/fund_portfolio_tracker/data/session"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/converter/telebotConverter"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service/reportService"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

const (
	internalErrMsg     = "something went wrong..."
	noPortfolioMsg     = "Select a portfolio first: /portfolios or /new <name>"
	historyReplyLimit  = 20
	tradeUsageTemplate = "Usage: /%s <fundID> <quantity> [price]"
)

type PortfolioService interface {
	CreatePortfolio(ctx context.Context, userID, name string) (model.Portfolio, error)
	GetPortfolio(ctx context.Context, portfolioID string) (model.Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]model.Portfolio, error)
	GetPortfolioValue(ctx context.Context, portfolioID string) (model.PortfolioValue, error)
	GetPortfolioHistory(ctx context.Context, portfolioID string) ([]model.Transaction, error)
	GetTopHoldings(ctx context.Context, portfolioID string, limit int) ([]model.TopHolding, error)
	GetPortfolioPerformance(ctx context.Context, portfolioID string) (model.PortfolioPerformance, error)
	GetRealizedGains(ctx context.Context, portfolioID string) (decimal.Decimal, error)
}

type FundService interface {
	ListFunds(ctx context.Context, category *model.FundCategory) ([]model.Fund, error)
	GetFund(ctx context.Context, fundID string) (model.Fund, error)
	GetPriceHistory(ctx context.Context, fundID string, days int) ([]model.PricePoint, error)
}

type TransactionService interface {
	CreateTransaction(ctx context.Context, req model.TransactionRequest) (model.Transaction, error)
}

type ReportService interface {
	ExportPortfolio(ctx context.Context, portfolioID string) (reportService.Export, error)
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type Controller struct {
	cfg                *config.Config
	portfolioService   PortfolioService
	fundService        FundService
	transactionService TransactionService
	reportService      ReportService
	session            Session
}

func NewController(
	cfg *config.Config,
	portfolioService PortfolioService,
	fundService FundService,
	transactionService TransactionService,
	reportService ReportService,
	session Session,
) *Controller {
	return &Controller{
		cfg:                cfg,
		portfolioService:   portfolioService,
		fundService:        fundService,
		transactionService: transactionService,
		reportService:      reportService,
		session:            session,
	}
}

func chatKey(c tele.Context) string {
	return strconv.FormatInt(c.Chat().ID, 10)
}

// replyError turns a service error into a user message. Only unexpected
// errors are logged here; business rejections are logged by the services.
func replyError(ctx context.Context, c tele.Context, op string, err error) error {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		return c.Send(validationMessage(vErr))
	case errors.Is(err, service.ErrInvalidArgument):
		return c.Send("Invalid input: " + strings.TrimPrefix(err.Error(), service.ErrInvalidArgument.Error()+": "))
	case service.IsNotFound(err):
		return c.Send("Not found.")
	default:
		slog.Error("got error in "+op, slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}
}

func validationMessage(err *service.ValidationError) string {
	switch err.Kind {
	case service.KindPortfolioNotFound:
		return "Portfolio not found."
	case service.KindFundNotFound:
		return "Fund not found. See /funds for available funds."
	case service.KindPriceOutOfTolerance:
		return "Price rejected: " + err.Message
	case service.KindInvalidQuantity:
		return "Invalid quantity: " + err.Message
	case service.KindInsufficientHoldings:
		return "Not enough units to sell: " + err.Message
	case service.KindInvalidTransactionType:
		return "Unknown transaction type."
	default:
		return err.Error()
	}
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	chatSession, err := ctrl.session.GetSession(ctx, chatKey(c))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.Session{}, nil
		}
		slog.Error("got error from session.GetSession", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		return model.Session{}, err
	}
	return chatSession, nil
}

func (ctrl *Controller) setSession(ctx context.Context, c tele.Context, chatSession model.Session) error {
	err := ctrl.session.SetSession(ctx, chatKey(c), chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
	}
	return err
}

// activePortfolio resolves the chat's selected portfolio. ok is false when a
// reply has already been sent.
func (ctrl *Controller) activePortfolio(ctx context.Context, c tele.Context) (portfolioID string, ok bool, err error) {
	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return "", false, c.Send(internalErrMsg)
	}
	if chatSession.PortfolioID == "" {
		return "", false, c.Send(noPortfolioMsg)
	}
	return chatSession.PortfolioID, true, nil
}

func (ctrl *Controller) Start(c tele.Context) error {
	return c.Send(strings.Join([]string{
		"Hello! I track your fund portfolios.",
		"",
		"/funds [category] - list funds",
		"/fund <id> [days] - fund details and price history",
		"/portfolios - your portfolios",
		"/new <name> - create a portfolio",
		"/use <portfolioID> - select a portfolio",
		"/value - portfolio value and returns",
		"/top [limit] - top holdings",
		"/performance - estimated performance",
		"/gains - estimated realized gains",
		"/history - transactions",
		"/buy <fundID> <qty> [price] - buy units",
		"/sell <fundID> <qty> [price] - sell units",
		"/report - export to xlsx",
	}, "\n"))
}

func (ctrl *Controller) ListFunds(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	var category *model.FundCategory
	if args := c.Args(); len(args) > 0 {
		parsed, err := model.ParseFundCategory(args[0])
		if err != nil {
			return c.Send(fmt.Sprintf("Unknown category. Available: %s", joinCategories()))
		}
		category = &parsed
	}

	funds, err := ctrl.fundService.ListFunds(ctx, category)
	if err != nil {
		return replyError(ctx, c, "fundService.ListFunds", err)
	}
	return c.Send(telebotConverter.FundsResponse(funds))
}

func joinCategories() string {
	names := make([]string, 0, len(model.FundCategories))
	for _, category := range model.FundCategories {
		names = append(names, string(category))
	}
	return strings.Join(names, ", ")
}

func (ctrl *Controller) FundInfo(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	args := c.Args()
	if len(args) == 0 {
		return c.Send("Usage: /fund <id> [days]")
	}

	days := ctrl.cfg.Portfolio.PriceHistoryDays
	if len(args) > 1 {
		parsed, err := strconv.Atoi(args[1])
		if err != nil || parsed < 0 {
			return c.Send("days must be a non-negative number")
		}
		days = parsed
	}

	fund, err := ctrl.fundService.GetFund(ctx, args[0])
	if err != nil {
		return replyError(ctx, c, "fundService.GetFund", err)
	}

	history, err := ctrl.fundService.GetPriceHistory(ctx, fund.ID, days)
	if err != nil {
		return replyError(ctx, c, "fundService.GetPriceHistory", err)
	}

	return c.Send(telebotConverter.FundResponse(fund, history))
}

func (ctrl *Controller) ListPortfolios(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	portfolios, err := ctrl.portfolioService.ListPortfolios(ctx, chatKey(c))
	if err != nil {
		return replyError(ctx, c, "portfolioService.ListPortfolios", err)
	}
	if limit := ctrl.cfg.Portfolio.PortfoliosPerReply; limit > 0 && len(portfolios) > limit {
		portfolios = portfolios[:limit]
	}

	text, markup := telebotConverter.PortfoliosResponse(portfolios, chatSession.PortfolioID)
	return c.Send(text, markup)
}

// InitPortfolioCreation creates the portfolio right away when a name is given,
// otherwise asks for it and waits for the next text message.
func (ctrl *Controller) InitPortfolioCreation(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	if name := strings.TrimSpace(c.Message().Payload); name != "" {
		return ctrl.createPortfolio(ctx, c, name)
	}

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.Action = model.ExpectingPortfolioName
	if err = ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Enter portfolio name:")
}

func (ctrl *Controller) ProcessPortfolioCreation(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	return ctrl.createPortfolio(ctx, c, c.Message().Text)
}

func (ctrl *Controller) createPortfolio(ctx context.Context, c tele.Context, name string) error {
	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	portfolio, err := ctrl.portfolioService.CreatePortfolio(ctx, chatKey(c), name)
	if err != nil {
		return replyError(ctx, c, "portfolioService.CreatePortfolio", err)
	}

	chatSession.Action = model.DefaultAction
	chatSession.PortfolioID = portfolio.ID
	if err = ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.PortfolioCreatedResponse(portfolio))
}

func (ctrl *Controller) UsePortfolio(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	portfolioID := strings.TrimSpace(c.Message().Payload)
	if portfolioID == "" {
		return c.Send("Usage: /use <portfolioID>")
	}
	return ctrl.selectPortfolio(ctx, c, portfolioID)
}

// UsePortfolioCallback handles the inline buttons from /portfolios.
func (ctrl *Controller) UsePortfolioCallback(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = c.Respond()
	return ctrl.selectPortfolio(ctx, c, c.Data())
}

func (ctrl *Controller) selectPortfolio(ctx context.Context, c tele.Context, portfolioID string) error {
	portfolio, err := ctrl.portfolioService.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return replyError(ctx, c, "portfolioService.GetPortfolio", err)
	}
	if portfolio.UserID != chatKey(c) {
		return c.Send("Portfolio not found.")
	}

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	chatSession.Action = model.DefaultAction
	chatSession.PortfolioID = portfolio.ID
	if err = ctrl.setSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send(telebotConverter.PortfolioSelectedResponse(portfolio))
}

func (ctrl *Controller) PortfolioValue(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	portfolioID, ok, err := ctrl.activePortfolio(ctx, c)
	if !ok {
		return err
	}

	portfolio, err := ctrl.portfolioService.GetPortfolio(ctx, portfolioID)
	if err != nil {
		return replyError(ctx, c, "portfolioService.GetPortfolio", err)
	}

	value, err := ctrl.portfolioService.GetPortfolioValue(ctx, portfolioID)
	if err != nil {
		return replyError(ctx, c, "portfolioService.GetPortfolioValue", err)
	}

	return c.Send(telebotConverter.PortfolioValueResponse(portfolio, value))
}

func (ctrl *Controller) TopHoldings(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	portfolioID, ok, err := ctrl.activePortfolio(ctx, c)
	if !ok {
		return err
	}

	limit := ctrl.cfg.Portfolio.TopHoldingsLimit
	if args := c.Args(); len(args) > 0 {
		limit, err = strconv.Atoi(args[0])
		if err != nil || limit <= 0 {
			return c.Send("limit must be a positive number")
		}
	}

	top, err := ctrl.portfolioService.GetTopHoldings(ctx, portfolioID, limit)
	if err != nil {
		return replyError(ctx, c, "portfolioService.GetTopHoldings", err)
	}

	return c.Send(telebotConverter.TopHoldingsResponse(top))
}

func (ctrl *Controller) Performance(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	portfolioID, ok, err := ctrl.activePortfolio(ctx, c)
	if !ok {
		return err
	}

	perf, err := ctrl.portfolioService.GetPortfolioPerformance(ctx, portfolioID)
	if err != nil {
		return replyError(ctx, c, "portfolioService.GetPortfolioPerformance", err)
	}

	return c.Send(telebotConverter.PerformanceResponse(perf))
}

func (ctrl *Controller) RealizedGains(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	portfolioID, ok, err := ctrl.activePortfolio(ctx, c)
	if !ok {
		return err
	}

	gains, err := ctrl.portfolioService.GetRealizedGains(ctx, portfolioID)
	if err != nil {
		return replyError(ctx, c, "portfolioService.GetRealizedGains", err)
	}

	return c.Send(telebotConverter.RealizedGainsResponse(gains))
}

func (ctrl *Controller) History(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	portfolioID, ok, err := ctrl.activePortfolio(ctx, c)
	if !ok {
		return err
	}

	txns, err := ctrl.portfolioService.GetPortfolioHistory(ctx, portfolioID)
	if err != nil {
		return replyError(ctx, c, "portfolioService.GetPortfolioHistory", err)
	}

	return c.Send(telebotConverter.HistoryResponse(txns, historyReplyLimit))
}

func (ctrl *Controller) Buy(c tele.Context) error {
	return ctrl.trade(c, model.TransactionBuy)
}

func (ctrl *Controller) Sell(c tele.Context) error {
	return ctrl.trade(c, model.TransactionSell)
}

func (ctrl *Controller) trade(c tele.Context, txnType model.TransactionType) error {
	ctx := utils.CreateCtxWithRqID(c)
	usage := fmt.Sprintf(tradeUsageTemplate, strings.ToLower(string(txnType)))

	portfolioID, ok, err := ctrl.activePortfolio(ctx, c)
	if !ok {
		return err
	}

	req, err := parseTradeArgs(portfolioID, txnType, c.Args())
	if err != nil {
		return c.Send(err.Error() + "\n" + usage)
	}

	txn, err := ctrl.transactionService.CreateTransaction(ctx, req)
	if err != nil {
		return replyError(ctx, c, "transactionService.CreateTransaction", err)
	}

	return c.Send(telebotConverter.TransactionResponse(txn))
}

func parseTradeArgs(portfolioID string, txnType model.TransactionType, args []string) (model.TransactionRequest, error) {
	if len(args) < 2 || len(args) > 3 {
		return model.TransactionRequest{}, errors.New("wrong number of arguments")
	}

	quantity, err := decimal.NewFromString(args[1])
	if err != nil {
		return model.TransactionRequest{}, fmt.Errorf("bad quantity %q", args[1])
	}

	req := model.TransactionRequest{
		PortfolioID: portfolioID,
		FundID:      args[0],
		Type:        txnType,
		Quantity:    quantity,
	}

	if len(args) == 3 {
		price, err := decimal.NewFromString(args[2])
		if err != nil {
			return model.TransactionRequest{}, fmt.Errorf("bad price %q", args[2])
		}
		req.Price = &price
	}

	return req, nil
}

func (ctrl *Controller) Report(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	portfolioID, ok, err := ctrl.activePortfolio(ctx, c)
	if !ok {
		return err
	}

	_ = c.Notify(tele.UploadingDocument)

	export, err := ctrl.reportService.ExportPortfolio(ctx, portfolioID)
	if err != nil {
		return replyError(ctx, c, "reportService.ExportPortfolio", err)
	}

	if export.Link != "" {
		return c.Send("📄 Report: " + export.Link)
	}

	return c.Send(&tele.Document{
		File:     tele.FromReader(bytes.NewReader(export.File)),
		FileName: export.FileName,
	})
}
