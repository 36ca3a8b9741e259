package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appaccounting "github.com/erp/ledger/internal/application/accounting"
	appnumbering "github.com/erp/ledger/internal/application/numbering"
	apptrade "github.com/erp/ledger/internal/application/trade"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testToday = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testToday }

// envelope decodes dto.Response with a typed payload
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

type testServer struct {
	engine   *gin.Engine
	tenantID uuid.UUID
	actorID  uuid.UUID
	trade    *TradeHandler
}

// newTestServer wires the full API over a migrated in-memory sqlite database
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, persistence.AutoMigrate(db))

	numbers := appnumbering.NewService(persistence.NewGormSequenceCounter(db))
	ledgerScope := persistence.NewGormLedgerTransactionScope(db)
	tradeScope := persistence.NewGormTradeTransactionScope(db)

	accounting := NewAccountingHandler(
		appaccounting.NewChartService(ledgerScope, nil),
		appaccounting.NewJournalService(appaccounting.JournalServiceConfig{
			Scope: ledgerScope, Numbers: numbers, Now: fixedNow,
		}),
		appaccounting.NewBalanceService(ledgerScope, nil),
	)
	tradeHandler := NewTradeHandler(
		apptrade.NewDocumentService(apptrade.DocumentServiceConfig{
			Scope: tradeScope, Numbers: numbers, Now: fixedNow,
		}),
		apptrade.NewPaymentService(apptrade.PaymentServiceConfig{
			Scope: tradeScope, Numbers: numbers, Now: fixedNow,
		}),
		apptrade.NewPartyService(tradeScope, nil),
	)
	tradeHandler.now = fixedNow

	engine := gin.New()
	engine.Use(logger.Recovery(zap.NewNop()), logger.GinMiddleware(zap.NewNop()))
	router.NewRouter(engine, router.WithAPIMiddleware(middleware.RequireTenant())).
		Register(accounting).
		Register(tradeHandler).
		Register(NewNumberingHandler(numbers)).
		Setup()

	return &testServer{
		engine:   engine,
		tenantID: uuid.New(),
		actorID:  uuid.New(),
		trade:    tradeHandler,
	}
}

// do sends a tenant-scoped request with the actor header set
func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.doWithHeaders(t, method, path, body, map[string]string{
		logger.HeaderTenantID: s.tenantID.String(),
		HeaderActorID:         s.actorID.String(),
	})
}

func (s *testServer) doWithHeaders(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

// decode unmarshals a response body, failing the test when the status differs
func decode[T any](t *testing.T, w *httptest.ResponseRecorder, wantStatus int) envelope[T] {
	t.Helper()
	require.Equal(t, wantStatus, w.Code, "body: %s", w.Body.String())
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// errorCode returns the error code of a failed response
func errorCode(t *testing.T, w *httptest.ResponseRecorder, wantStatus int) string {
	t.Helper()
	env := decode[json.RawMessage](t, w, wantStatus)
	require.False(t, env.Success)
	require.NotNil(t, env.Error)
	return env.Error.Code
}

func (s *testServer) createAccount(t *testing.T, code, name, typ string) uuid.UUID {
	t.Helper()
	env := decode[appaccounting.AccountResponse](t, s.do(t, http.MethodPost, "/accounts", gin.H{
		"code": code, "name": name, "type": typ,
	}), http.StatusCreated)
	return env.Data.ID
}
