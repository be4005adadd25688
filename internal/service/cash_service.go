package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"petzap/internal/apierror"
	"petzap/internal/dto"
	"petzap/internal/infra"
	"petzap/internal/ledger"
	"petzap/internal/model"
	"petzap/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CashService runs the cash drawer lifecycle: open, manual movements, and a
// reconciled close. Balances are always derived from stored records.
type CashService interface {
	Open(ctx context.Context, operatorID *uuid.UUID, req dto.OpenCashRequest) (*dto.CashSessionResponse, error)
	AddMovement(ctx context.Context, operatorID *uuid.UUID, req dto.CashMovementRequest) (*dto.CashMovementResponse, error)
	Current(ctx context.Context) (*dto.CashSessionResponse, error)
	Close(ctx context.Context, operatorID *uuid.UUID, req dto.CloseCashRequest) (*dto.CashSessionResponse, error)
	Report(ctx context.Context, sessionID uuid.UUID) (*dto.CashSessionResponse, error)
	History(ctx context.Context, page, limit int) (*dto.CashHistoryResponse, error)
	ReportPDF(ctx context.Context, sessionID uuid.UUID, w io.Writer) error
}

// CashOptions configures the closing report.
type CashOptions struct {
	StoreName      string
	ReportEmail    string // empty disables the closing email
	PDFStoragePath string
}

type cashService struct {
	repo     repository.CashRepository
	notifier Notifier
	opts     CashOptions
}

func NewCashService(repo repository.CashRepository, notifier Notifier, opts CashOptions) CashService {
	if opts.StoreName == "" {
		opts.StoreName = "PetZap"
	}
	return &cashService{repo: repo, notifier: notifier, opts: opts}
}

// ── Open ──────────────────────────────────────────────────────────────────────

func (s *cashService) Open(ctx context.Context, operatorID *uuid.UUID, req dto.OpenCashRequest) (*dto.CashSessionResponse, error) {
	if req.OpeningAmount.IsNegative() {
		return nil, apierror.Validation("valor de abertura não pode ser negativo")
	}

	if _, err := s.repo.FindOpenSession(ctx, nil); err == nil {
		return nil, apierror.Conflict("Já existe um caixa aberto")
	} else if !isNotFound(err) {
		return nil, apierror.Persistence("falha ao verificar caixa aberto", err)
	}

	session := &model.CashSession{
		OpenedBy:      operatorID,
		OpeningAmount: req.OpeningAmount.Round(2),
		Status:        model.CashStatusOpen,
		Notes:         trimmed(req.Notes),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		// lost the race against another open: the partial unique index rejected it
		if infra.IsUniqueViolation(err) {
			return nil, apierror.Conflict("Já existe um caixa aberto")
		}
		return nil, apierror.Persistence("falha ao abrir caixa", err)
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("opening_amount", session.OpeningAmount.StringFixed(2)).
		Msg("cash session opened")
	return s.buildReport(ctx, session, false)
}

// ── AddMovement ───────────────────────────────────────────────────────────────
// Withdrawal (sangria) or supply (suprimento). Movements are immutable.

func (s *cashService) AddMovement(ctx context.Context, operatorID *uuid.UUID, req dto.CashMovementRequest) (*dto.CashMovementResponse, error) {
	if req.Type != model.MovementWithdrawal && req.Type != model.MovementSupply {
		return nil, apierror.Validation("tipo de movimentação inválido")
	}
	if !req.Amount.IsPositive() {
		return nil, apierror.Validation("valor deve ser maior que zero")
	}

	session, err := s.repo.FindOpenSession(ctx, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.Precondition("Caixa fechado")
		}
		return nil, apierror.Persistence("falha ao carregar caixa", err)
	}

	mov := &model.CashMovement{
		CashRegisterID: session.ID,
		Type:           req.Type,
		Amount:         req.Amount.Round(2),
		Reason:         trimmed(req.Reason),
		PerformedBy:    operatorID,
	}
	// A close committed between the read above and this tx turns into 409.
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.LockOpenSession(ctx, tx, session.ID); err != nil {
			if isNotFound(err) {
				return apierror.Precondition("Caixa fechado")
			}
			return err
		}
		return s.repo.CreateMovement(ctx, tx, mov)
	})
	if txErr != nil {
		return nil, apierror.Persistence("falha ao registrar movimentação", txErr)
	}
	resp := movementToResponse(mov)
	return &resp, nil
}

// ── Current ───────────────────────────────────────────────────────────────────

func (s *cashService) Current(ctx context.Context) (*dto.CashSessionResponse, error) {
	session, err := s.repo.FindOpenSession(ctx, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, apierror.Precondition("Nenhum caixa aberto")
		}
		return nil, apierror.Persistence("falha ao carregar caixa", err)
	}
	return s.buildReport(ctx, session, true)
}

// ── Close ─────────────────────────────────────────────────────────────────────
// Expected amount and difference are computed inside the transaction from the
// stored sales and movements, never from client-side totals.

func (s *cashService) Close(ctx context.Context, operatorID *uuid.UUID, req dto.CloseCashRequest) (*dto.CashSessionResponse, error) {
	if req.ClosingAmount.IsNegative() {
		return nil, apierror.Validation("valor contado não pode ser negativo")
	}
	counted := req.ClosingAmount.Round(2)

	var session *model.CashSession
	var rec ledger.Reconciliation
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		session, err = s.repo.FindOpenSession(ctx, tx)
		if err != nil {
			if isNotFound(err) {
				return apierror.Precondition("Nenhum caixa aberto")
			}
			return err
		}
		sales, err := s.repo.SumPaidSales(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		movs, err := s.repo.ListMovements(ctx, tx, session.ID)
		if err != nil {
			return err
		}

		rec = ledger.Reconcile(session.OpeningAmount, sales, movs, counted)
		closedAt := s.now()
		session.ClosedAt = &closedAt
		session.ClosedBy = operatorID
		session.ClosingAmount = &rec.Counted
		session.ExpectedAmount = &rec.Expected
		session.Difference = &rec.Difference
		session.Notes = appendNotes(session.Notes, req.Notes)

		n, err := s.repo.CloseSession(ctx, tx, session)
		if err != nil {
			return err
		}
		if n == 0 {
			return apierror.Conflict("O caixa já foi fechado por outra operação")
		}
		session.Status = model.CashStatusClosed
		return nil
	})
	if txErr != nil {
		return nil, apierror.Persistence("falha ao fechar caixa", txErr)
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("expected", rec.Expected.StringFixed(2)).
		Str("counted", rec.Counted.StringFixed(2)).
		Str("difference", rec.Difference.StringFixed(2)).
		Str("classification", rec.Classification).
		Msg("cash session closed")

	report, err := s.buildReport(ctx, session, true)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.notifier, infra.NewEvent(infra.EventCashClosed, map[string]interface{}{
		"cash_register_id": session.ID.String(),
		"opening_amount":   session.OpeningAmount.StringFixed(2),
		"sales_total":      report.SalesTotal.StringFixed(2),
		"sales_count":      report.SalesCount,
		"expected_amount":  rec.Expected.StringFixed(2),
		"closing_amount":   rec.Counted.StringFixed(2),
		"difference":       rec.Difference.StringFixed(2),
		"classification":   rec.Classification,
	}))
	s.mailClosingReport(ctx, session, report)
	return report, nil
}

// mailClosingReport writes the PDF and queues it for the configured address.
// Failures are logged; the close already succeeded.
func (s *cashService) mailClosingReport(ctx context.Context, session *model.CashSession, report *dto.CashSessionResponse) {
	if s.opts.ReportEmail == "" || s.notifier == nil {
		return
	}
	path, err := infra.WriteCashReportPDF(s.opts.PDFStoragePath, reportData(s.opts.StoreName, session, report))
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("closing report PDF failed")
		return
	}
	msg := infra.EmailMessage{
		To:             s.opts.ReportEmail,
		Subject:        fmt.Sprintf("%s - Fechamento de caixa %s", s.opts.StoreName, session.ClosedAt.Format("02/01/2006")),
		Body:           fmt.Sprintf("Saldo esperado: R$ %s\nValor contado: R$ %s\nDiferença: R$ %s", report.ExpectedAmount.StringFixed(2), report.ClosingAmount.StringFixed(2), report.Difference.StringFixed(2)),
		AttachmentPath: path,
	}
	if err := s.notifier.EnqueueEmail(ctx, msg); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("failed to enqueue closing report email")
	}
}

// ── Report / History ──────────────────────────────────────────────────────────

func (s *cashService) Report(ctx context.Context, sessionID uuid.UUID) (*dto.CashSessionResponse, error) {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, lookupErr(err, "Sessão de caixa não encontrada")
	}
	return s.buildReport(ctx, session, true)
}

func (s *cashService) History(ctx context.Context, page, limit int) (*dto.CashHistoryResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	sessions, total, err := s.repo.ListSessions(ctx, page, limit)
	if err != nil {
		return nil, apierror.Persistence("falha ao listar sessões de caixa", err)
	}
	data := make([]dto.CashSessionResponse, 0, len(sessions))
	for i := range sessions {
		r, err := s.buildReport(ctx, &sessions[i], false)
		if err != nil {
			return nil, err
		}
		data = append(data, *r)
	}
	return &dto.CashHistoryResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *cashService) ReportPDF(ctx context.Context, sessionID uuid.UUID, w io.Writer) error {
	session, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return lookupErr(err, "Sessão de caixa não encontrada")
	}
	report, err := s.buildReport(ctx, session, true)
	if err != nil {
		return err
	}
	return infra.RenderCashReportPDF(w, reportData(s.opts.StoreName, session, report))
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *cashService) buildReport(ctx context.Context, session *model.CashSession, withMovements bool) (*dto.CashSessionResponse, error) {
	sales, err := s.repo.SumPaidSales(ctx, nil, session.ID)
	if err != nil {
		return nil, apierror.Persistence("falha ao somar vendas", err)
	}
	count, err := s.repo.CountPaidSales(ctx, session.ID)
	if err != nil {
		return nil, apierror.Persistence("falha ao contar vendas", err)
	}
	movs, err := s.repo.ListMovements(ctx, nil, session.ID)
	if err != nil {
		return nil, apierror.Persistence("falha ao listar movimentações", err)
	}
	totals := ledger.Totals(movs)

	r := &dto.CashSessionResponse{
		ID:             session.ID.String(),
		Status:         session.Status,
		OpenedAt:       session.OpenedAt,
		OpenedBy:       uuidString(session.OpenedBy),
		OpeningAmount:  session.OpeningAmount,
		SalesTotal:     sales,
		SalesCount:     count,
		Supplies:       totals.Supplies,
		Withdrawals:    totals.Withdrawals,
		Balance:        ledger.Balance(session.OpeningAmount, sales, movs),
		ClosedAt:       session.ClosedAt,
		ClosedBy:       uuidString(session.ClosedBy),
		ClosingAmount:  session.ClosingAmount,
		ExpectedAmount: session.ExpectedAmount,
		Difference:     session.Difference,
		Notes:          session.Notes,
	}
	if session.ExpectedAmount != nil && session.Difference != nil {
		c := ledger.Classify(*session.Difference, *session.ExpectedAmount)
		r.Classification = &c
	}
	if withMovements {
		r.Movements = make([]dto.CashMovementResponse, 0, len(movs))
		for i := range movs {
			r.Movements = append(r.Movements, movementToResponse(&movs[i]))
		}
	}
	return r, nil
}

func (s *cashService) now() time.Time { return time.Now() }

func reportData(storeName string, session *model.CashSession, r *dto.CashSessionResponse) infra.CashReportData {
	movs := make([]model.CashMovement, 0, len(r.Movements))
	for _, m := range r.Movements {
		movs = append(movs, model.CashMovement{Type: m.Type, Amount: m.Amount, Reason: m.Reason, CreatedAt: m.CreatedAt})
	}
	classification := ""
	if r.Classification != nil {
		classification = *r.Classification
	}
	return infra.CashReportData{
		StoreName:      storeName,
		Session:        session,
		Movements:      movs,
		SalesTotal:     r.SalesTotal,
		SalesCount:     r.SalesCount,
		Supplies:       r.Supplies,
		Withdrawals:    r.Withdrawals,
		Balance:        r.Balance,
		Classification: classification,
	}
}

func movementToResponse(m *model.CashMovement) dto.CashMovementResponse {
	return dto.CashMovementResponse{
		ID:        m.ID.String(),
		Type:      m.Type,
		Amount:    m.Amount,
		Reason:    m.Reason,
		CreatedAt: m.CreatedAt,
	}
}

// appendNotes joins closing notes onto the opening notes with a newline.
func appendNotes(existing, extra *string) *string {
	add := trimmed(extra)
	if add == nil {
		return existing
	}
	if existing == nil || *existing == "" {
		return add
	}
	joined := *existing + "\n" + *add
	return &joined
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
