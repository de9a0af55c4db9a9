package webhooks

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/akozyreva/stockbot-backend/api/responses"
	"github.com/akozyreva/stockbot-backend/api/validators"
	pkgerrors "github.com/akozyreva/stockbot-backend/pkg/errors"
	"github.com/akozyreva/stockbot-backend/pkg/logger"
	"github.com/akozyreva/stockbot-backend/pkg/telegram"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

type CommandHandler interface {
	HandleMessage(ctx context.Context, msg *telegram.Message) string
}

type ReplySender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type UpdateGuard interface {
	CheckAndMark(ctx context.Context, updateID int64) (bool, error)
	Forget(ctx context.Context, updateID int64) error
}

// TelegramWebhook handles Bot API update deliveries. Telegram retries a
// delivery until it gets a 200, so updates are deduplicated by update_id
// before the command runs.
func TelegramWebhook(handler CommandHandler, sender ReplySender, guard UpdateGuard, secretToken string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if handler == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "command handler unavailable"))
			return
		}
		if sender == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "telegram client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dedup guard unavailable"))
			return
		}

		got := r.Header.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secretToken)) != 1 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook secret token mismatch"))
			return
		}

		var update telegram.Update
		if err := validators.DecodeJSONBody(r, &update); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		alreadySeen, err := guard.CheckAndMark(ctx, update.UpdateID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check update dedup"))
			return
		}
		if alreadySeen {
			responses.WriteSuccess(w, nil)
			return
		}

		reply := handler.HandleMessage(ctx, update.Message)
		if reply == "" {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := sender.SendMessage(ctx, update.Message.Chat.ID, reply); err != nil {
			_ = guard.Forget(ctx, update.UpdateID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, "update "+strconv.FormatInt(update.UpdateID, 10)+" processed")
		}
		responses.WriteSuccess(w, nil)
	}
}
