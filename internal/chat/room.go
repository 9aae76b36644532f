package chat

// RoomID derives the room shared by two participants. The pair is ordered
// lexicographically first, so RoomID(a, b) == RoomID(b, a).
func RoomID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return "chat_" + a + "_" + b
}
