package report

import "fmt"

// reasonGuide drives one top-level report reason: the sub-menu shown after
// the reason is picked, the accepted choices, how the moderator-facing
// reason text is composed, and whether the sock-puppet question follows.
// The sock-puppet asymmetry (false information and harassment ask, the
// others skip straight to the block question) is a policy choice carried
// from the original flow.
type reasonGuide struct {
	menuKey       string
	menuLabel     string
	state         State
	prompt        []string
	choices       map[string]string
	composeFormat string
	askSockPuppet bool
}

// composeReason builds the free-text reason forwarded to moderators.
func (g *reasonGuide) composeReason(choice string) string {
	return fmt.Sprintf(g.composeFormat, g.choices[choice])
}

// reasonGuides holds one entry per item of the five-reason menu, in menu
// order.
var reasonGuides = []reasonGuide{
	{
		menuKey:   "1",
		menuLabel: "Violence or danger",
		state:     StateViolence,
		prompt: []string{
			"Who is the threat towards?",
			"1: You",
			"2: Someone else",
		},
		choices: map[string]string{
			"1": "You",
			"2": "Someone else",
		},
		composeFormat: "violence or danger towards %s",
	},
	{
		menuKey:   "2",
		menuLabel: "Spam",
		state:     StateSpam,
		prompt: []string{
			"How is this message spam?",
			"1: The user is fake",
			"2: Includes a link to a potentially harmful, malicious, or phishing site",
			"3: It's something else",
		},
		choices: map[string]string{
			"1": "The user is fake",
			"2": "Includes a link to a potentially harmful, malicious, or phishing site",
			"3": "It's something else",
		},
		composeFormat: "spam: %s",
	},
	{
		menuKey:   "3",
		menuLabel: "Hate speech or symbols",
		state:     StateHate,
		prompt: []string{
			"What kind of hate speech is this?",
			"1: Race or ethnicity",
			"2: Sex, gender, or sexual orientation",
			"3: Religion",
			"4: National origin",
			"5: Disability or disease",
		},
		choices: map[string]string{
			"1": "Race or ethnicity",
			"2": "Sex, gender, or sexual orientation",
			"3": "Religion",
			"4": "National origin",
			"5": "Disability or disease",
		},
		composeFormat: "hate speech or symbols relating to %s",
	},
	{
		menuKey:   "4",
		menuLabel: "False information",
		state:     StateFalseInfo,
		prompt: []string{
			"What's this message misleading about?",
			"1: Politics",
			"2: Health",
			"3: Something else",
		},
		choices: map[string]string{
			"1": "Politics",
			"2": "Health",
			"3": "Something else",
		},
		composeFormat: "false information about %s",
		askSockPuppet: true,
	},
	{
		menuKey:   "5",
		menuLabel: "Harrassment",
		state:     StateHarassment,
		prompt: []string{
			"How is this message harrassment?",
			"1: Degrading or shaming someone",
			"2: Repeatedly contacting a person or group that doesn't want contact",
			"3: Calling for the harm of someone",
		},
		choices: map[string]string{
			"1": "Degrading or shaming someone",
			"2": "Repeatedly contacting a person or group that doesn't want contact",
			// Menu says "Calling for"; the moderator-facing reason keeps the
			// established phrasing
			"3": "Encourages the harm of someone",
		},
		composeFormat: "harrassment: %s",
		askSockPuppet: true,
	},
}

// guideByMenuKey returns the guide bound to a five-reason menu choice.
func guideByMenuKey(key string) (*reasonGuide, bool) {
	for i := range reasonGuides {
		if reasonGuides[i].menuKey == key {
			return &reasonGuides[i], true
		}
	}

	return nil, false
}

// guideByState returns the guide whose sub-reason state is active.
func guideByState(state State) (*reasonGuide, bool) {
	for i := range reasonGuides {
		if reasonGuides[i].state == state {
			return &reasonGuides[i], true
		}
	}

	return nil, false
}

// reasonMenu renders the five-item reason menu shown once the reported
// message is identified.
func reasonMenu() []string {
	menu := []string{
		"Please select a problem with this message by typing the number next to the appropriate reason:",
	}

	for i := range reasonGuides {
		menu = append(menu, reasonGuides[i].menuKey+": "+reasonGuides[i].menuLabel)
	}

	return menu
}
