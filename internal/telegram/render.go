package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"daily-planner-bot/internal/analytics"
	"daily-planner-bot/internal/clock"
	"daily-planner-bot/internal/planner"
	"daily-planner-bot/internal/tasks"
)

// Reply is what the bot sends back for one planner result.
type Reply struct {
	Text     string
	Keyboard *InlineKeyboard
	// Edit replaces the message the button was on instead of sending a new one.
	Edit  bool
	Toast string
}

func MainMenu() *InlineKeyboard {
	return &InlineKeyboard{InlineKeyboard: [][]InlineButton{
		{{Text: "➕ Добавить задачу", CallbackData: planner.ActionAdd}},
		{{Text: "📅 Сегодня", CallbackData: planner.ActionToday}},
		{{Text: "📊 Статистика", CallbackData: planner.ActionStats}},
		{{Text: "🧹 Закрыть день", CallbackData: planner.ActionClear}},
	}}
}

// callback_data для кнопки "выполнено": done_<id>
func doneData(id int64) string {
	return planner.ActionDone + "_" + strconv.FormatInt(id, 10)
}

// ParseCallback splits callback data into the planner action and its payload.
func ParseCallback(data string) (action, payload string) {
	if rest, ok := strings.CutPrefix(data, planner.ActionDone+"_"); ok {
		return planner.ActionDone, rest
	}
	return data, ""
}

// Markdown (legacy) ломается на непарных _ * ` [ в пользовательском тексте.
var markdownEscaper = strings.NewReplacer(
	"_", "\\_",
	"*", "\\*",
	"`", "\\`",
	"[", "\\[",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func humanDay(d clock.Day) string {
	t, err := time.Parse(clock.DayLayout, string(d))
	if err != nil {
		return string(d)
	}
	return t.Format("02.01.2006")
}

func tierPhrase(t analytics.Tier) string {
	switch t {
	case analytics.TierTop:
		return "🔥 Ты в ударе!"
	case analytics.TierMiddle:
		return "😐 Могло быть и лучше"
	default:
		return "😭 Пора браться за дело"
	}
}

func markToast(m *tasks.MarkResult) string {
	if m == nil {
		return ""
	}
	switch *m {
	case tasks.MarkUpdated:
		return "✅ Засчитано!"
	case tasks.MarkAlreadyDone:
		return "Уже выполнено"
	default:
		return "Задача не найдена"
	}
}

// Render turns a planner result into a chat reply. KindIgnored renders to an empty Reply.
func Render(res planner.Result) Reply {
	switch res.Kind {
	case planner.KindMenu:
		return Reply{
			Text:     "🔥 Привет!\n\nЯ твой личный планировщик на день.\nЖми кнопки ниже и не давай прокрастинации шанса.",
			Keyboard: MainMenu(),
		}

	case planner.KindPrompt:
		return Reply{Text: "📝 Пиши задачу на сегодня:"}

	case planner.KindCancelled:
		return Reply{Text: "Ок, ничего не добавляю.", Keyboard: MainMenu()}

	case planner.KindTaskAdded:
		return Reply{
			Text:     fmt.Sprintf("✅ Задача добавлена!\n\n「%s」", escapeMarkdown(res.Task.Body)),
			Keyboard: MainMenu(),
		}

	case planner.KindTaskList:
		return renderTaskList(res)

	case planner.KindStats:
		s := res.Stats
		return Reply{
			Text: fmt.Sprintf(
				"📊 *Статистика за 7 дней*\n\nВсего задач: %d\nВыполнено: %d (%.1f%%)\n\n%s",
				s.Total, s.Done, s.Percent, tierPhrase(s.Tier),
			),
			Keyboard: MainMenu(),
		}

	case planner.KindDayClosed:
		text := "🧹 День закрыт!\nНевыполненное улетело на завтра. Не расслабляйся!"
		if res.Closed != nil && res.Closed.Moved == 0 {
			text = "🧹 День закрыт!\nПереносить нечего, всё сделано."
		}
		return Reply{Text: text, Keyboard: MainMenu()}

	case planner.KindConfirmWipe:
		return Reply{
			Text: "🗑 Удалить все задачи за все дни? Это не отменить.",
			Keyboard: &InlineKeyboard{InlineKeyboard: [][]InlineButton{
				{
					{Text: "Да, удалить всё", CallbackData: planner.ActionWipe},
					{Text: "Отмена", CallbackData: planner.ActionMenu},
				},
			}},
		}

	case planner.KindWiped:
		return Reply{
			Text:     fmt.Sprintf("🗑 Удалено задач: %d", res.Removed),
			Keyboard: MainMenu(),
		}
	}

	return Reply{}
}

func renderTaskList(res planner.Result) Reply {
	toast := markToast(res.Mark)

	if len(res.Tasks) == 0 {
		return Reply{
			Text:     "🎉 Сегодня пусто! Самое время что-нибудь добавить.",
			Keyboard: MainMenu(),
			Toast:    toast,
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 *Задачи на %s*\n\n", humanDay(res.Day))

	kb := &InlineKeyboard{}
	for _, t := range res.Tasks {
		status := "⬜"
		if t.Done {
			status = "✅"
		}
		fmt.Fprintf(&b, "%s %s\n", status, escapeMarkdown(t.Body))
		if !t.Done {
			kb.InlineKeyboard = append(kb.InlineKeyboard, []InlineButton{
				{Text: status + " " + t.Body, CallbackData: doneData(t.ID)},
			})
		}
	}
	kb.InlineKeyboard = append(kb.InlineKeyboard,
		[]InlineButton{{Text: "🔄 Обновить", CallbackData: planner.ActionToday}},
		[]InlineButton{{Text: "⬅️ Меню", CallbackData: planner.ActionMenu}},
	)

	return Reply{Text: b.String(), Keyboard: kb, Edit: true, Toast: toast}
}
