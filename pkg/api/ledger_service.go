package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// LedgerServiceName is the fully-qualified name of the LedgerService.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Procedure paths, "/" + service name + "/" + method.
const (
	LedgerServiceRecordExpenseProcedure = "/" + LedgerServiceName + "/RecordExpense"
	LedgerServiceGetExpenseProcedure    = "/" + LedgerServiceName + "/GetExpense"
	LedgerServiceListExpensesProcedure  = "/" + LedgerServiceName + "/ListExpenses"
	LedgerServiceGetBalanceProcedure    = "/" + LedgerServiceName + "/GetBalance"
	LedgerServiceListBalancesProcedure  = "/" + LedgerServiceName + "/ListBalances"
	LedgerServiceSettleProcedure        = "/" + LedgerServiceName + "/Settle"
)

// LedgerServiceHandler is implemented by the server.
// The ledger service records expenses and computes balances and settlements.
type LedgerServiceHandler interface {
	RecordExpense(context.Context, *connect.Request[RecordExpenseRequest]) (*connect.Response[RecordExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
	ListBalances(context.Context, *connect.Request[ListBalancesRequest]) (*connect.Response[ListBalancesResponse], error)
	Settle(context.Context, *connect.Request[SettleRequest]) (*connect.Response[SettleResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler for svc. It returns the path to
// mount the handler on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(LedgerServiceRecordExpenseProcedure, connect.NewUnaryHandler(LedgerServiceRecordExpenseProcedure, svc.RecordExpense, opts...))
	mux.Handle(LedgerServiceGetExpenseProcedure, connect.NewUnaryHandler(LedgerServiceGetExpenseProcedure, svc.GetExpense, opts...))
	mux.Handle(LedgerServiceListExpensesProcedure, connect.NewUnaryHandler(LedgerServiceListExpensesProcedure, svc.ListExpenses, opts...))
	mux.Handle(LedgerServiceGetBalanceProcedure, connect.NewUnaryHandler(LedgerServiceGetBalanceProcedure, svc.GetBalance, opts...))
	mux.Handle(LedgerServiceListBalancesProcedure, connect.NewUnaryHandler(LedgerServiceListBalancesProcedure, svc.ListBalances, opts...))
	mux.Handle(LedgerServiceSettleProcedure, connect.NewUnaryHandler(LedgerServiceSettleProcedure, svc.Settle, opts...))
	return "/" + LedgerServiceName + "/", mux
}

// LedgerServiceClient calls a remote LedgerService.
type LedgerServiceClient interface {
	RecordExpense(context.Context, *connect.Request[RecordExpenseRequest]) (*connect.Response[RecordExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
	ListBalances(context.Context, *connect.Request[ListBalancesRequest]) (*connect.Response[ListBalancesResponse], error)
	Settle(context.Context, *connect.Request[SettleRequest]) (*connect.Response[SettleResponse], error)
}

type ledgerServiceClient struct {
	recordExpense *connect.Client[RecordExpenseRequest, RecordExpenseResponse]
	getExpense    *connect.Client[GetExpenseRequest, GetExpenseResponse]
	listExpenses  *connect.Client[ListExpensesRequest, ListExpensesResponse]
	getBalance    *connect.Client[GetBalanceRequest, GetBalanceResponse]
	listBalances  *connect.Client[ListBalancesRequest, ListBalancesResponse]
	settle        *connect.Client[SettleRequest, SettleResponse]
}

// NewLedgerServiceClient returns a client for the service at baseURL,
// e.g. http://localhost:8080.
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ledgerServiceClient{
		recordExpense: connect.NewClient[RecordExpenseRequest, RecordExpenseResponse](httpClient, baseURL+LedgerServiceRecordExpenseProcedure, opts...),
		getExpense:    connect.NewClient[GetExpenseRequest, GetExpenseResponse](httpClient, baseURL+LedgerServiceGetExpenseProcedure, opts...),
		listExpenses:  connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+LedgerServiceListExpensesProcedure, opts...),
		getBalance:    connect.NewClient[GetBalanceRequest, GetBalanceResponse](httpClient, baseURL+LedgerServiceGetBalanceProcedure, opts...),
		listBalances:  connect.NewClient[ListBalancesRequest, ListBalancesResponse](httpClient, baseURL+LedgerServiceListBalancesProcedure, opts...),
		settle:        connect.NewClient[SettleRequest, SettleResponse](httpClient, baseURL+LedgerServiceSettleProcedure, opts...),
	}
}

func (c *ledgerServiceClient) RecordExpense(ctx context.Context, req *connect.Request[RecordExpenseRequest]) (*connect.Response[RecordExpenseResponse], error) {
	return c.recordExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalance(ctx context.Context, req *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListBalances(ctx context.Context, req *connect.Request[ListBalancesRequest]) (*connect.Response[ListBalancesResponse], error) {
	return c.listBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) Settle(ctx context.Context, req *connect.Request[SettleRequest]) (*connect.Response[SettleResponse], error) {
	return c.settle.CallUnary(ctx, req)
}
