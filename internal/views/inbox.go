package views

import (
	"context"

	"cafedesk/internal/domain"
	applog "cafedesk/internal/log"
	"cafedesk/internal/validate"
)

type MessageLister interface {
	List(ctx context.Context) ([]domain.Message, error)
}

type MessageService interface {
	MessageLister
	Delete(ctx context.Context, id string) error
	Reply(ctx context.Context, id, body string) error
}

// Inbox lists contact messages. Deleting reloads the list; replying does
// not, since a reply leaves the message unchanged.
type Inbox struct {
	svc  MessageService
	list *List[domain.Message]
}

func NewInbox(svc MessageService) *Inbox {
	return &Inbox{svc: svc, list: NewList(svc.List, DefaultPolicy)}
}

func (in *Inbox) Load(ctx context.Context) error {
	err := in.list.Load(ctx)
	if err != nil && err != ErrDiscarded && err != ErrClosed {
		applog.Error(ctx, "messages.load.fail", err, nil)
	}
	return err
}

func (in *Inbox) Items() []domain.Message { return in.list.Items() }

func (in *Inbox) Find(id string) (domain.Message, bool) {
	for _, m := range in.list.Items() {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Message{}, false
}

func (in *Inbox) Delete(ctx context.Context, id string) error {
	err := in.list.Mutate(ctx, func(ctx context.Context) error {
		return in.svc.Delete(ctx, id)
	})
	if err != nil {
		applog.Error(ctx, "messages.delete.fail", err, map[string]any{"id": id})
		return err
	}
	applog.Audit(ctx, "messages.delete", map[string]any{"id": id})
	logStale(ctx, in.list, "messages.refresh.fail", map[string]any{"id": id})
	return nil
}

func (in *Inbox) Reply(ctx context.Context, id, body string) error {
	if err := validate.Reply(body); err != nil {
		return err
	}
	err := in.list.Do(ctx, func(ctx context.Context) error {
		return in.svc.Reply(ctx, id, body)
	})
	if err != nil {
		applog.Error(ctx, "messages.reply.fail", err, map[string]any{"id": id})
		return err
	}
	applog.Audit(ctx, "messages.reply", map[string]any{"id": id})
	return nil
}

func (in *Inbox) Status() Status { return in.list.Status() }
func (in *Inbox) Close()         { in.list.Close() }
