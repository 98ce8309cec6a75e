package ai

import (
	"fmt"

	"google.golang.org/genai"
)

var chatSchema = &Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"response": {Type: genai.TypeString},
	},
	Required: []string{"response"},
}

var prioritySchema = &Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"prioritizedTasks": {Type: genai.TypeString},
		"reasoning":        {Type: genai.TypeString},
	},
	Required: []string{"prioritizedTasks", "reasoning"},
}

var durationSchema = &Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"totalDurationSeconds": {Type: genai.TypeNumber},
	},
	Required: []string{"totalDurationSeconds"},
}

func chatPrompt(message string) string {
	return fmt.Sprintf(`You are a helpful AI assistant. Respond to the user message:

%s`, message)
}

func priorityPrompt(req PriorityRequest) string {
	return fmt.Sprintf(`You are an AI assistant designed to help students prioritize their tasks.

Based on the student's calendar events, task list, and Pomodoro interval, suggest the best task priorities.

Calendar Events: %s
Task List: %s
Pomodoro Interval: %d minutes

Prioritized Tasks: Provide a list of tasks with suggested priorities and the reasoning behind the suggested priorities.`,
		req.CalendarEvents, req.TaskList, req.PomodoroMinutes)
}

func durationPrompt(url string) string {
	return fmt.Sprintf(`You are a YouTube playlist analysis tool. Your task is to calculate the total duration of all videos in the given YouTube playlist URL.

Analyze the playlist at the following URL: %s

First, determine if the URL points to a valid YouTube playlist or a single video.
- If it's a playlist, find all the videos in it and sum up their individual durations.
- If it's a single video, get the duration of that video.
- If the URL is not a valid YouTube video or playlist URL, return 0.

Return the total duration in seconds. For example, if the total duration is 1 hour, 54 minutes, and 3 seconds, you should return 6843.`, url)
}
