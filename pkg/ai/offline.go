package ai

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"kaisey-backend/pkg/fuzzy"
)

var (
	clockPattern    = regexp.MustCompile(`(\d{1,2}):?(\d{2})?\s*(am|pm)`)
	hoursPattern    = regexp.MustCompile(`(\d+)\s*(hour|hr)`)
	minutesPattern  = regexp.MustCompile(`(\d+)\s*(min|minute)`)
	offlineHelpText = "I can help you optimize your schedule! Try:\n" +
		"• \"My priority today is recruiting\"\n" +
		"• \"My priority is academics\"\n" +
		"• \"My priority is health\"\n" +
		"• \"My priority is networking\"\n\n" +
		"Or ask me to move specific events!"
)

// OfflineService answers chat messages with keyword rules when no language
// model is available. It never extracts tasks or proposes schedules.
type OfflineService struct{}

func NewOfflineService() *OfflineService {
	return &OfflineService{}
}

// ExtractTasks implements Assistant
func (o *OfflineService) ExtractTasks(ctx context.Context, req ExtractRequest) (*ExtractionResult, error) {
	return nil, ErrInvalidKey
}

// ProposeSchedule implements Assistant
func (o *OfflineService) ProposeSchedule(ctx context.Context, req ProposalRequest) (*ProposalResult, error) {
	return nil, ErrInvalidKey
}

// Chat implements Assistant
func (o *OfflineService) Chat(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	lower := strings.ToLower(req.Message)

	if containsAny(lower, "schedule", "add time", "block time", "study time") &&
		containsAny(lower, "valuation", "case study", "quiz", "assignment", "exam", "marketing", "operations", "ethics") {
		return o.scheduleStudy(lower, req.Events), nil
	}

	if containsAny(lower, "priority", "priorities", "focus on", "important", "need to") {
		return o.prioritize(lower, req.Events), nil
	}

	if containsAny(lower, "move", "reschedule") {
		return o.move(lower, req.Events), nil
	}

	return &ChatReply{Content: offlineHelpText, Actions: []ActionCall{}}, nil
}

func (o *OfflineService) scheduleStudy(lower string, events []ExistingEvent) *ChatReply {
	title := "Study: Assignment Work"
	switch {
	case strings.Contains(lower, "valuation"):
		title = "Study: Valuation Case Study"
	case strings.Contains(lower, "marketing"):
		title = "Study: Marketing Mix Analysis"
	case strings.Contains(lower, "operations"):
		title = "Study: Operations Group Project"
	case strings.Contains(lower, "ethics"):
		title = "Study: Ethics Discussion Post"
	case strings.Contains(lower, "quiz"):
		title = "Study: Strategy Canvas Quiz"
	}

	at := parseSpokenTime(lower, "14:00")
	duration := parseSpokenDuration(lower, 120)

	if containsAny(lower, "replace", "instead of", "move") {
		if target, ok := findEvent(lower, events); ok {
			return &ChatReply{
				Content: fmt.Sprintf("I'll replace your %s with %s:", target.Title, title),
				Actions: []ActionCall{{
					ActionType:          "replace",
					EventTitle:          target.Title,
					EventTime:           target.Time,
					EventDuration:       target.Duration,
					ReplaceWithTitle:    title,
					ReplaceWithTime:     at,
					ReplaceWithDuration: duration,
				}},
			}
		}
	}

	return &ChatReply{
		Content: fmt.Sprintf("Perfect! I'll add %s to your calendar:", title),
		Actions: []ActionCall{{ActionType: "add", EventTitle: title, EventTime: at, EventDuration: duration}},
	}
}

func (o *OfflineService) prioritize(lower string, events []ExistingEvent) *ChatReply {
	gym, hasGym := findEvent("gym workout yoga", events)
	coffee, hasCoffee := findEvent("coffee chat", events)

	var priority string
	actions := make([]ActionCall, 0)
	switch {
	case containsAny(lower, "recruit", "career", "job"):
		priority = "recruiting and career development"
		if hasGym {
			actions = append(actions, replaceCall(gym, gym.Title, "06:00", gym.Duration))
		}
		actions = append(actions, addCall("Goldman Sachs Prep", "11:30", 30))
		if hasCoffee {
			actions = append(actions, replaceCall(coffee, coffee.Title, coffee.Time, 60))
		}
	case containsAny(lower, "study", "academic", "exam", "class"):
		priority = "academics and studying"
		if hasGym {
			actions = append(actions, removeCall(gym))
		}
		if hasCoffee {
			actions = append(actions, removeCall(coffee))
		}
		actions = append(actions, addCall("Focused Study Block", "14:00", 120))
	case containsAny(lower, "health", "recovery", "rest", "well-being"):
		priority = "health and recovery"
		if hasCoffee {
			actions = append(actions, replaceCall(coffee, coffee.Title+" - Video Call", coffee.Time, coffee.Duration))
		}
		if hasGym {
			actions = append(actions, replaceCall(gym, "Light Yoga & Stretching", gym.Time, 30))
		}
		actions = append(actions, addCall("Meditation Break", "15:00", 30))
	case containsAny(lower, "network", "connection", "relationship"):
		priority = "networking and building connections"
		if hasCoffee {
			actions = append(actions, replaceCall(coffee, coffee.Title, coffee.Time, 60))
		}
		actions = append(actions,
			addCall("Goldman Sachs Follow-up", "13:00", 15),
			addCall("Lunch with Classmates", "13:30", 60),
		)
	default:
		priority = "your stated goals"
		actions = append(actions,
			addCall("Protected Focus Time", "09:00", 120),
			addCall("Travel Buffer", "11:45", 15),
			addCall("Deep Work Block", "14:30", 90),
		)
	}

	return &ChatReply{
		Content: fmt.Sprintf("Got it! I understand %s is your top priority today. Here are my recommended calendar changes:", priority),
		Actions: actions,
	}
}

func (o *OfflineService) move(lower string, events []ExistingEvent) *ChatReply {
	target, ok := findEvent(lower, events)
	if !ok {
		return &ChatReply{
			Content: "I couldn't find that event on today's calendar. Which event should I move?",
			Actions: []ActionCall{},
		}
	}

	fallback := "14:00"
	if strings.Contains(lower, "tomorrow") {
		fallback = "06:00"
	}
	at := parseSpokenTime(lower, fallback)

	return &ChatReply{
		Content: fmt.Sprintf("I'll move %s to %s:", target.Title, at),
		Actions: []ActionCall{replaceCall(target, target.Title, at, target.Duration)},
	}
}

func findEvent(text string, events []ExistingEvent) (ExistingEvent, bool) {
	titles := make([]string, len(events))
	for i, e := range events {
		titles[i] = e.Title
	}
	i, ok := fuzzy.BestMatch(text, titles)
	if !ok {
		return ExistingEvent{}, false
	}
	return events[i], true
}

// parseSpokenTime understands "6pm", "6:30 pm", "morning", "afternoon" and "evening"
func parseSpokenTime(lower, fallback string) string {
	if m := clockPattern.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minutes := 0
		if m[2] != "" {
			minutes, _ = strconv.Atoi(m[2])
		}
		if m[3] == "pm" && hour != 12 {
			hour += 12
		}
		if m[3] == "am" && hour == 12 {
			hour = 0
		}
		if hour < 24 && minutes < 60 {
			return fmt.Sprintf("%02d:%02d", hour, minutes)
		}
	}
	switch {
	case strings.Contains(lower, "morning"):
		return "09:00"
	case strings.Contains(lower, "afternoon"):
		return "14:00"
	case strings.Contains(lower, "evening"):
		return "18:00"
	}
	return fallback
}

func parseSpokenDuration(lower string, fallback int) int {
	if m := hoursPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n * 60
		}
	}
	if m := minutesPattern.FindStringSubmatch(lower); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func addCall(title, at string, duration int) ActionCall {
	return ActionCall{ActionType: "add", EventTitle: title, EventTime: at, EventDuration: duration}
}

func removeCall(e ExistingEvent) ActionCall {
	return ActionCall{ActionType: "remove", EventTitle: e.Title, EventTime: e.Time, EventDuration: e.Duration}
}

func replaceCall(e ExistingEvent, title, at string, duration int) ActionCall {
	return ActionCall{
		ActionType:          "replace",
		EventTitle:          e.Title,
		EventTime:           e.Time,
		EventDuration:       e.Duration,
		ReplaceWithTitle:    title,
		ReplaceWithTime:     at,
		ReplaceWithDuration: duration,
	}
}
