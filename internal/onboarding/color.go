package onboarding

// FallbackColor is used for any label without an entry.
const FallbackColor = "bg-gray-100 text-gray-800"

var statusColors = map[Status]string{
	StatusNotJoined:          "bg-red-100 text-red-800",
	StatusLoginPending:       "bg-yellow-100 text-yellow-800",
	StatusProfilePending:     "bg-orange-100 text-orange-800",
	StatusInProgress:         "bg-blue-100 text-blue-800",
	StatusReadyToJoin:        "bg-indigo-100 text-indigo-800",
	StatusJoiningFormalities: "bg-purple-100 text-purple-800",
	StatusCompleted:          "bg-green-100 text-green-800",
}

// StatusColor returns the badge class for a label.
func StatusColor(s Status) string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return FallbackColor
}
