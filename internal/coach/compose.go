// Package coach holds Logan's conversational behaviour: the local reply
// decision table and the LLM-backed chat and workout generation flows.
package coach

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/logancoach/logan/internal/intent"
)

const escapeHatch = "Or just say 'create workout now' and I'll use reasonable defaults!"

// ReadyReply is returned whenever the user asks for the workout outright.
const ReadyReply = "Great! I can create a workout plan for you right now with the information I have. I'll use reasonable defaults for any missing details. Click the 'Create Workout Plan' button below to generate your personalized workout schedule!"

const fallbackReply = "That's helpful information! Tell me more about your fitness journey and what you're hoping to achieve. Or just say 'create workout now' and I'll design something great for you!"

// readySignal matches whole words only so "know" or "started" do not count.
var readySignal = regexp.MustCompile(`\b(create|make|generate|ready|now|start)\b`)

// lastMissing asks for a field when it is the only one left.
var lastMissing = map[intent.Field]string{
	intent.FieldLevel:     "Great! I'm getting a good picture of your needs. Just one more thing - how would you describe your current fitness level? Are you a beginner, intermediate, or advanced? You can also just say 'create workout now' and I'll use reasonable defaults!",
	intent.FieldGoals:     "Perfect! I can see your experience level. What are your main fitness goals? Are you looking to lose weight, build muscle, improve endurance, or something else? Or just say 'create workout now' and I'll design something great for you!",
	intent.FieldTime:      "Excellent! I understand your goals. How much time can you realistically dedicate to working out? I can create plans for 20, 30, 45, or 60-minute sessions. Or just say 'create workout now' and I'll make a 45-minute plan!",
	intent.FieldEquipment: "Got it! What equipment do you have access to? Do you have dumbbells, a full gym, or are you working with just bodyweight exercises? Or just say 'create workout now' and I'll design a bodyweight plan!",
	intent.FieldFocus:     "Almost there! What areas would you like to focus on? Upper body, lower body, core, or a full-body workout? Or just say 'create workout now' and I'll make a full-body plan!",
	intent.FieldFrequency: "Perfect! How many days per week would you like to work out? I can create plans for 2, 3, 4, 5, or 6 days per week. Or just say 'create workout now' and I'll make a 3-day plan!",
}

// firstMissing asks for a field early in the conversation.
var firstMissing = map[intent.Field]string{
	intent.FieldLevel:     "Great to meet you! I'd love to understand your fitness level better. Are you new to working out, or do you have some experience under your belt? Or just say 'create workout now' and I'll design a beginner-friendly plan!",
	intent.FieldGoals:     "What are your main fitness goals? Are you looking to lose weight, build muscle, improve endurance, or just get more toned? Or just say 'create workout now' and I'll make a general fitness plan!",
	intent.FieldTime:      "How much time can you realistically dedicate to working out? I can create plans for 20, 30, 45, or 60-minute sessions. Or just say 'create workout now' and I'll make a 45-minute plan!",
	intent.FieldEquipment: "What equipment do you have access to? Do you have dumbbells, a full gym, or are you working with just bodyweight exercises? Or just say 'create workout now' and I'll design a bodyweight plan!",
	intent.FieldFocus:     "Which part of your body would you like to focus on, or would you prefer a full-body workout? Or just say 'create workout now' and I'll make a full-body plan!",
	intent.FieldFrequency: "How many days per week would you like to work out? I can create plans for 2, 3, 4, 5, or 6 days per week. Or just say 'create workout now' and I'll make a 3-day plan!",
}

// Ready reports whether message asks Logan to generate immediately.
func Ready(message string) bool {
	return readySignal.MatchString(strings.ToLower(message))
}

// Compose picks Logan's next reply from the intent gathered so far and the
// latest user message. An explicit ready signal wins over missing fields.
func Compose(in intent.Intent, message string) string {
	if Ready(message) {
		return ReadyReply
	}

	missing := in.Missing()
	switch len(missing) {
	case 0:
		return fmt.Sprintf("Perfect! I have all the information I need to create your personalized weekly workout plan. I'll design a %s-day split that fits your %s level and %s goals. When you're ready, click the 'Create Workout Plan' button below and I'll generate a complete weekly schedule tailored specifically for you!",
			in.WorkoutFrequency, in.FitnessLevel, in.Goals)
	case 1:
		return lastMissing[missing[0]]
	case 2:
		return fmt.Sprintf("Thanks for sharing that! I just need a couple more details: %s and %s. Can you tell me about those? %s",
			missing[0].Label(), missing[1].Label(), escapeHatch)
	}

	// Missing is in canonical order, which is also the priority order.
	if p, ok := firstMissing[missing[0]]; ok {
		return p
	}
	return fallbackReply
}
