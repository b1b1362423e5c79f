package ai

import (
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	toolExtractTasks    = "extract_tasks"
	toolProposeSchedule = "propose_schedule"
	toolCalendarAction  = "calendar_action"
)

var categories = []string{"class", "meeting", "study", "workout", "networking", "recruiting"}

func extractSystemPrompt(today string) string {
	return fmt.Sprintf(`You are the task extraction assistant of Kaisey, a planning tool for MBA students.
The user gives you a brain dump: unstructured text about everything they need to do.

Your job:
1. Extract each SCHEDULABLE task, meaning something the user must DO that takes time.
2. For every task determine category, priority, estimated duration and due date when inferable, and a preferred time when the user named one.
3. A named time ("nails at 6pm", "gym at 7") becomes preferredTime in 24h HH:MM ("18:00", "07:00").
4. Leave out duration or due date when the text does not say.
5. Ask a clarification question for every task without a duration. A task with a preferred time but no duration gets a duration question.
6. Never ask for a due date when the task has a preferred time; it is for today.

Calendar management commands are NOT tasks. Requests such as "delete events", "clear my schedule", "cancel my meeting", "reschedule X" or "move my appointment" must be ignored; return an empty tasks array for them.

Today's date is: %s

Categories: class, meeting, study, workout, networking, recruiting
Priorities: high (due soon or critical), medium (important but flexible), low (nice to have)

Respond ONLY by calling the extract_tasks function.`, today)
}

func proposeSystemPrompt(req ProposalRequest) string {
	existing, _ := json.MarshalIndent(req.Existing, "", "  ")
	tasks, _ := json.MarshalIndent(req.Tasks, "", "  ")
	return fmt.Sprintf(`You are the schedule optimization assistant of an MBA student.
Place the tasks below around the existing calendar events of today.

RULES:
1. The current time is %[1]s. NEVER schedule anything before %[1]s.
2. A task with a preferredTime is scheduled at EXACTLY that time when it is after %[1]s and free.
3. NEVER overlap existing calendar events.
4. Every block has a positive integer duration in minutes; estimate one (at least 15) when the task has none.
5. Leave a 15-minute buffer between back-to-back blocks.
6. Put high priority tasks in peak hours (9-11 AM, 2-4 PM) when possible.
7. Nothing ends after 10:00 PM.
8. Group tasks of the same category when possible.
9. Add short breaks between blocks longer than 2 hours.

Today's date is: %[2]s
Current time is: %[1]s

Existing calendar events for today:
%[3]s

Tasks to schedule:
%[4]s

Respond ONLY by calling the propose_schedule function.`, req.Now, req.Today, existing, tasks)
}

func chatSystemPrompt(req ChatRequest) string {
	events, _ := json.Marshal(req.Events)
	return fmt.Sprintf(`You are Kaisey, an MBA Co-Pilot that helps students optimize their schedules.

Context:
- Today's date: %s
- Current time: %s
- Today's events: %s

RULES:
1. Remember the conversation. Never ask again for information the user already gave (title, time, duration, recurrence).
2. As soon as you know title, time and duration (plus frequency and length for recurring events), call calendar_action.
3. Always use 24-hour time ("18:00" for 6 PM).
4. "6pm - 9pm" means 180 minutes starting at 18:00.
5. A recurring event is ONE calendar_action with recurrence parameters, never several separate events.
6. To remove or replace an event use its exact title and time from today's events.`, req.Today, req.Now, events)
}

var extractTasksTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        toolExtractTasks,
		Description: "Extract structured tasks from a brain dump",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"tasks": {
					Type: jsonschema.Array,
					Items: &jsonschema.Definition{
						Type: jsonschema.Object,
						Properties: map[string]jsonschema.Definition{
							"title": {Type: jsonschema.String},
							"estimatedDuration": {
								Type:        jsonschema.Number,
								Description: "Duration in minutes. Omit when unknown.",
							},
							"dueDate": {
								Type:        jsonschema.String,
								Description: "YYYY-MM-DD. Omit when unknown. A task with a specific time is due today.",
							},
							"preferredTime": {
								Type:        jsonschema.String,
								Description: "HH:MM in 24h format. Omit unless the user named a time.",
							},
							"priority": {Type: jsonschema.String, Enum: []string{"high", "medium", "low"}},
							"category": {Type: jsonschema.String, Enum: categories},
						},
						Required: []string{"title", "priority", "category"},
					},
				},
				"clarification_questions": {
					Type: jsonschema.Array,
					Items: &jsonschema.Definition{
						Type: jsonschema.Object,
						Properties: map[string]jsonschema.Definition{
							"task_title": {Type: jsonschema.String},
							"question":   {Type: jsonschema.String},
							"field":      {Type: jsonschema.String, Enum: []string{"estimatedDuration", "dueDate"}},
						},
						Required: []string{"task_title", "question", "field"},
					},
				},
			},
			Required: []string{"tasks", "clarification_questions"},
		},
	},
}

var proposeScheduleTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        toolProposeSchedule,
		Description: "Propose a schedule for the given tasks",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"scheduled_blocks": {
					Type: jsonschema.Array,
					Items: &jsonschema.Definition{
						Type: jsonschema.Object,
						Properties: map[string]jsonschema.Definition{
							"task_title": {Type: jsonschema.String},
							"time":       {Type: jsonschema.String, Description: "HH:MM 24h format"},
							"date":       {Type: jsonschema.String, Description: "YYYY-MM-DD"},
							"duration":   {Type: jsonschema.Number, Description: "minutes"},
							"category":   {Type: jsonschema.String},
						},
						Required: []string{"task_title", "time", "date", "duration", "category"},
					},
				},
				"recommendations": {
					Type: jsonschema.Array,
					Items: &jsonschema.Definition{
						Type: jsonschema.Object,
						Properties: map[string]jsonschema.Definition{
							"type":        {Type: jsonschema.String, Enum: []string{"conflict", "optimization", "alert", "success"}},
							"title":       {Type: jsonschema.String},
							"description": {Type: jsonschema.String},
						},
						Required: []string{"type", "title", "description"},
					},
				},
				"summary": {Type: jsonschema.String, Description: "Brief explanation of the proposed schedule"},
			},
			Required: []string{"scheduled_blocks", "recommendations", "summary"},
		},
	},
}

var calendarActionTool = openai.Tool{
	Type: openai.ToolTypeFunction,
	Function: &openai.FunctionDefinition{
		Name:        toolCalendarAction,
		Description: "Add, remove, or replace a calendar event. Recurring events use the recurrence parameters instead of several events.",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"action_type":           {Type: jsonschema.String, Enum: []string{"add", "remove", "replace"}, Description: "The type of calendar action"},
				"event_title":           {Type: jsonschema.String, Description: "Title of the event"},
				"event_time":            {Type: jsonschema.String, Description: "Time in 24-hour format (HH:MM)"},
				"event_duration":        {Type: jsonschema.Number, Description: "Duration in minutes (default 60)"},
				"replace_with_title":    {Type: jsonschema.String, Description: "For replace actions: new event title"},
				"replace_with_time":     {Type: jsonschema.String, Description: "For replace actions: new time in 24-hour format"},
				"replace_with_duration": {Type: jsonschema.Number, Description: "For replace actions: new duration in minutes"},
				"is_recurring":          {Type: jsonschema.Boolean, Description: "Whether this is a recurring event"},
				"recurrence_frequency":  {Type: jsonschema.String, Enum: []string{"daily", "weekly", "monthly"}, Description: "How often the event repeats"},
				"recurrence_days": {
					Type:        jsonschema.Array,
					Items:       &jsonschema.Definition{Type: jsonschema.String, Enum: []string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}},
					Description: "For weekly recurrence: which days, e.g. [\"TU\", \"TH\"]",
				},
				"recurrence_until": {Type: jsonschema.String, Description: "End date for recurrence in YYYY-MM-DD format"},
				"recurrence_count": {Type: jsonschema.Number, Description: "Number of occurrences (alternative to until date)"},
			},
			Required: []string{"action_type", "event_title", "event_time", "event_duration"},
		},
	},
}
