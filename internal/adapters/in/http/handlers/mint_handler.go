// internal/adapters/in/http/handlers/mint_handler.go
package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	mintapp "mintx/internal/application/mint"
	"mintx/internal/application/submission"
	"mintx/internal/domain/fee"
	reqdom "mintx/internal/domain/mintRequest"
)

// multipart の上限（画像 5 MiB + フォーム分の余裕）
const maxFormBytes = reqdom.MaxImageBytes + 1<<20

// SubmissionService は handler が使う submission.Service の一部です。
type SubmissionService interface {
	Start(ctx context.Context, req reqdom.MintRequest) (string, error)
	Get(ctx context.Context, id string) (submission.Submission, error)
}

type MintHandler struct {
	svc    SubmissionService
	logger *zap.Logger
}

func NewMintHandler(svc SubmissionService, logger *zap.Logger) *MintHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MintHandler{svc: svc, logger: logger.Named("handler.mint")}
}

// Routes は /v1 配下にぶら下げます。
func (h *MintHandler) Routes(r chi.Router) {
	r.Get("/fees", h.Fees)
	r.Post("/mints", h.Submit)
	r.Get("/mints/{id}", h.Get)
}

// GET /v1/fees?revokeMint=&revokeFreeze=
func (h *MintHandler) Fees(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quote := fee.NewQuote(parseBool(q.Get("revokeMint")), parseBool(q.Get("revokeFreeze")))
	writeJSON(w, http.StatusOK, feeResponse{
		Quote:    quote,
		TotalSOL: quote.Total.SOL().String(),
	})
}

type feeResponse struct {
	fee.Quote
	TotalSOL string `json:"totalSol"`
}

type submitResponse struct {
	ID       string    `json:"id"`
	Fee      fee.Quote `json:"fee"`
	Location string    `json:"location"`
}

// POST /v1/mints (multipart/form-data)
func (h *MintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	draft, err := draftFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid image upload")
		return
	}

	req, err := reqdom.Validate(draft)
	if err != nil {
		if ve, ok := reqdom.AsValidationError(err); ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":      "invalid_input",
				"violations": ve.Violations,
			})
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.svc.Start(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, mintapp.ErrWalletNotConnected):
		writeError(w, http.StatusServiceUnavailable, "wallet not connected")
		return
	case errors.Is(err, submission.ErrBusy):
		writeError(w, http.StatusConflict, "a submission is already running")
		return
	default:
		h.logger.Error("start submission", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not start submission")
		return
	}

	loc := "/v1/mints/" + id
	w.Header().Set("Location", loc)
	writeJSON(w, http.StatusAccepted, submitResponse{
		ID:       id,
		Fee:      fee.NewQuote(req.RevokeMintAuthority, req.RevokeFreezeAuthority),
		Location: loc,
	})
}

// GET /v1/mints/{id}
func (h *MintHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	s, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, submission.ErrNotFound) {
			writeError(w, http.StatusNotFound, "submission not found")
			return
		}
		h.logger.Error("get submission", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load submission")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func draftFromForm(r *http.Request) (reqdom.Draft, error) {
	v := r.FormValue
	d := reqdom.Draft{
		Name:           v("name"),
		Symbol:         v("symbol"),
		Decimals:       v("decimals"),
		InitialSupply:  v("initialSupply"),
		Description:    v("description"),
		IncludeSocials: parseBool(v("includeSocials")),
		Socials: reqdom.SocialLinks{
			Website:  v("website"),
			Twitter:  v("twitter"),
			Telegram: v("telegram"),
			Discord:  v("discord"),
		},
		RevokeMintAuthority:   parseBool(v("revokeMintAuthority")),
		RevokeFreezeAuthority: parseBool(v("revokeFreezeAuthority")),
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return d, nil
	}
	if err != nil {
		return d, err
	}
	defer file.Close()

	// 上限 +1 バイトまで読めば ImageTooLarge を判定できる
	data, err := io.ReadAll(io.LimitReader(file, reqdom.MaxImageBytes+1))
	if err != nil {
		return d, err
	}
	d.Image = reqdom.Image{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		FileName:    header.Filename,
	}
	return d, nil
}
