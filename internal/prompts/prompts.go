// Package prompts holds the system and user prompt templates sent to the
// chat-completion and realtime APIs.
package prompts

import (
	"fmt"
	"strings"
)

// Context is the slot-filling state rendered into the coaching prompt.
type Context struct {
	FitnessLevel  string
	Goals         string
	TimeAvailable string
	Equipment     string
}

// Remembered is what the memory service recalls about a returning user.
type Remembered struct {
	FitnessLevel     string
	Goals            string
	TimeAvailable    string
	Equipment        string
	FocusAreas       string
	WorkoutFrequency string
}

func (r Remembered) empty() bool {
	return r == Remembered{}
}

// WorkoutSystem is the system message for single-workout generation.
const WorkoutSystem = "You are Logan, a professional fitness trainer and AI assistant. Create safe, effective, and personalized daily workouts tailored to each user's specific needs and goals. ALWAYS respond with ONLY valid JSON - no additional text, no explanations, just the JSON object. Make workouts engaging, achievable, and motivational."

// PlanSystem is the system message for weekly plan generation.
const PlanSystem = "You are Logan, a professional fitness trainer and AI assistant. Create safe, effective, and personalized weekly workout plans tailored to each user's specific needs and goals. ALWAYS respond with ONLY valid JSON - no additional text, no explanations, just the JSON object. Make plans engaging, progressive, and motivational."

const chatTemplate = `You are Logan, an enthusiastic and knowledgeable AI personal trainer. You're having a natural conversation with someone who wants to work out TODAY - just one single workout session.

IMPORTANT: You are designing ONE workout for TODAY only. Do NOT ask about:
- Weekly workout routines or schedules
- How many days per week they work out
- Long-term training programs
- Past workout history or frequency

Your goal is to gather the following information naturally for TODAY'S workout:
- Fitness level (beginner, intermediate, advanced)
- Main goals for today (weight loss, muscle building, strength, general fitness, etc.)
- Time available for TODAY'S workout (in minutes)
- Available equipment RIGHT NOW (bodyweight only, dumbbells, full gym, etc.)

Current context you know:
- Fitness Level: %s
- Goals: %s
- Time Available: %s
- Equipment: %s
%s
Guidelines for your responses:
1. Be conversational, friendly, and encouraging like a real trainer
2. Ask follow-up questions naturally within the conversation
3. Show genuine interest in their fitness journey
4. Focus ONLY on today's single workout session
5. Don't ask about workout frequency, weekly schedules, or routines
6. Be motivational and supportive
7. Keep responses concise but engaging (2-3 sentences max)
8. Use fitness knowledge to give helpful tips or insights
9. Let the conversation flow naturally - the user will decide when they're ready for a workout
10. Keep your answers as concise as possible! Break up multiple sentences into multiple lines for easier readability.

Remember: You're creating ONE workout for TODAY only! Focus on having a great conversation about what they want to accomplish in today's session.`

// Chat builds the coaching system prompt. It always forbids questions about
// weekly schedules or frequency because only one session is being planned.
func Chat(c Context, mem Remembered) string {
	return fmt.Sprintf(chatTemplate,
		orUnknown(c.FitnessLevel), orUnknown(c.Goals),
		orUnknown(c.TimeAvailable), orUnknown(c.Equipment),
		rememberedSection(mem))
}

func rememberedSection(m Remembered) string {
	if m.empty() {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nWhat I remember about this user from previous conversations:\n")
	line := func(label, v, suffix string) {
		if v != "" {
			fmt.Fprintf(&b, "- %s: %s%s\n", label, v, suffix)
		}
	}
	line("Previous fitness level", m.FitnessLevel, "")
	line("Previous goals", m.Goals, "")
	line("Usual workout time", m.TimeAvailable, " minutes")
	line("Equipment access", m.Equipment, "")
	line("Focus areas", m.FocusAreas, "")
	line("Workout frequency", m.WorkoutFrequency, " days per week")
	b.WriteString("\nUse this information to personalize the conversation, but still focus on TODAY'S workout needs.\n")
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// WorkoutParams parameterise single-workout generation.
type WorkoutParams struct {
	FitnessLevel  string
	Goals         string
	TimeAvailable string
	Equipment     string
	Conversation  string
	ID            string
	Date          string
}

const workoutTemplate = `Create a single workout for today for a %[1]s fitness level.
Goals: %[2]s
Time available: %[3]s minutes
Available equipment: %[4]s

IMPORTANT: Respond with ONLY valid JSON. Do not include any text before or after the JSON.

Format the response as JSON with this EXACT structure:
{
  "id": "%[5]s",
  "name": "Today's Workout",
  "date": "%[6]s",
  "exercises": [
    {
      "name": "Exercise Name",
      "sets": 3,
      "reps": 10,
      "weight": 0,
      "notes": "Form tips and notes"
    }
  ],
  "duration": %[3]s,
  "notes": "Workout-specific notes and encouragement",
  "completed": false
}

Rules:
- Create 4-8 exercises appropriate for the fitness level
- "reps" must be a number (not "30 seconds" or any text)
- "weight" must be a number (0 for bodyweight exercises)
- "sets" must be a number
- All values must be valid JSON (no quotes around numbers)
- Make the workout achievable within %[3]s minutes
- Focus on the user's specific goals: %[2]s
- Include motivational notes`

// Workout builds the user prompt for single-workout generation.
func Workout(p WorkoutParams) string {
	base := fmt.Sprintf(workoutTemplate, p.FitnessLevel, p.Goals, p.TimeAvailable, p.Equipment, p.ID, p.Date)
	return withConversation(p.Conversation, base,
		"Use the conversation context to make the workout more personalized and relevant to their specific goals and preferences.")
}

// CustomParams parameterise the typed workout generator.
type CustomParams struct {
	FitnessLevel string
	WorkoutType  string
	FocusArea    string
	Duration     int
	Equipment    []string
	Conversation string
}

const customTemplate = `Create a %[1]s workout for a %[2]s fitness level.
Focus area: %[3]s
Duration: %[4]d minutes
Available equipment: %[5]s

IMPORTANT: Respond with ONLY valid JSON. Do not include any text before or after the JSON.

Format the response as JSON with this EXACT structure:
{
  "name": "Workout Name",
  "exercises": [
    {
      "name": "Exercise Name",
      "sets": 3,
      "reps": 10,
      "weight": 0,
      "notes": "Form tips and notes"
    }
  ],
  "notes": "Workout-specific notes"
}

Rules:
- "reps" must be a number (not "30 seconds" or any text)
- "weight" must be a number (0 for bodyweight exercises)
- "sets" must be a number
- All values must be valid JSON (no quotes around numbers)
- Make the workout achievable within %[4]d minutes`

// Custom builds the user prompt for the typed workout generator.
func Custom(p CustomParams) string {
	equipment := strings.Join(p.Equipment, ", ")
	if equipment == "" {
		equipment = "bodyweight only"
	}
	base := fmt.Sprintf(customTemplate, p.WorkoutType, p.FitnessLevel, p.FocusArea, p.Duration, equipment)
	return withConversation(p.Conversation, base,
		"Use the conversation context to make the workout more personalized and relevant to their specific goals and preferences.")
}

// PlanParams parameterise weekly plan generation.
type PlanParams struct {
	FitnessLevel     string
	Goals            string
	WorkoutFrequency string
	TimeAvailable    string
	Equipment        string
	FocusAreas       string
	Conversation     string
}

const planTemplate = `Create a comprehensive %[1]s-day weekly workout plan for a %[2]s fitness level.
Goals: %[3]s
Time per session: %[4]s minutes
Available equipment: %[5]s
Focus areas: %[6]s

IMPORTANT: Respond with ONLY valid JSON. Do not include any text before or after the JSON.

Format the response as JSON with this EXACT structure:
{
  "name": "Weekly Workout Plan",
  "description": "Brief description of the plan",
  "weeklyPlan": [
    {
      "day": "Monday",
      "focus": "Upper Body",
      "workout": {
        "name": "Upper Body Strength",
        "exercises": [
          {
            "name": "Exercise Name",
            "sets": 3,
            "reps": 10,
            "weight": 0,
            "notes": "Form tips and notes"
          }
        ],
        "notes": "Workout-specific notes"
      }
    }
  ],
  "notes": "Overall plan notes and tips"
}

Rules:
- Create exactly %[1]s workout days
- "reps" must be a number (not "30 seconds" or any text)
- "weight" must be a number (0 for bodyweight exercises)
- "sets" must be a number
- All values must be valid JSON (no quotes around numbers)
- Make each day's workout appropriate for the fitness level and can be completed within %[4]s minutes
- Include rest days appropriately
- Make the plan progressive and balanced
- Focus on the user's specific goals: %[3]s`

// Plan builds the user prompt for weekly plan generation.
func Plan(p PlanParams) string {
	base := fmt.Sprintf(planTemplate, p.WorkoutFrequency, p.FitnessLevel, p.Goals, p.TimeAvailable, p.Equipment, p.FocusAreas)
	return withConversation(p.Conversation, base,
		"Use the conversation context to make the plan more personalized and relevant to their specific goals and preferences.")
}

func withConversation(conversation, base, closing string) string {
	if conversation == "" {
		return base
	}
	return "Based on this conversation with a user about their fitness goals:\n\n" +
		conversation + "\n\n" + base + "\n\n" + closing
}
