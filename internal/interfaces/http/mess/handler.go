package mess

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	"github.com/sngm3741/mess-hall/api/internal/interfaces/http/common"
	messapp "github.com/sngm3741/mess-hall/api/internal/mess/application"
)

// Handler wires mess hall endpoints to application services.
type Handler struct {
	logger     *log.Logger
	complaints messapp.ComplaintService
	feedback   messapp.FeedbackService
	menu       messapp.MenuService
	polls      messapp.PollService
	notices    messapp.NoticeService
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger     *log.Logger
	Complaints messapp.ComplaintService
	Feedback   messapp.FeedbackService
	Menu       messapp.MenuService
	Polls      messapp.PollService
	Notices    messapp.NoticeService
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		logger:     cfg.Logger,
		complaints: cfg.Complaints,
		feedback:   cfg.Feedback,
		menu:       cfg.Menu,
		polls:      cfg.Polls,
		notices:    cfg.Notices,
	}
}

// Register mounts mess hall routes onto the router.
// 役割の判定はサービスが行うため、ここでは認証の有無だけを切り替える。
func (h *Handler) Register(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/complaints", h.complaintCreateHandler())
		r.Get("/complaints", h.complaintListHandler())
		r.Get("/complaints/my-complaints", h.complaintListMineHandler())
		r.Put("/complaints/{id}", h.complaintStatusHandler())
		r.Post("/complaints/{id}/reply", h.complaintReplyHandler())

		r.Post("/feedback", h.feedbackCreateHandler())
		r.Get("/feedback", h.feedbackListHandler())
		r.Get("/feedback/{mealType}", h.feedbackListByMealHandler())

		r.Put("/menu", h.menuUpsertHandler())
		r.Post("/menu/email", h.menuEmailHandler())

		r.Post("/polls", h.pollCreateHandler())
		r.Post("/polls/vote", h.pollVoteHandler())
		r.Delete("/polls/{id}", h.pollDeleteHandler())

		r.Post("/notices", h.noticeCreateHandler())
		r.Get("/notices", h.noticeListHandler())
	})

	r.Get("/menu", h.menuGetHandler())
	r.Get("/polls", h.pollListHandler())
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (identitydomain.Account, bool) {
	account, ok := common.AccountFromContext(r.Context())
	if !ok {
		common.WriteError(h.logger, w, r, apperr.Unauthenticated("No token, authorization denied"))
		return identitydomain.Account{}, false
	}
	return account, true
}
