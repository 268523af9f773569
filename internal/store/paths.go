package store

// Collection layout. Everything hangs off a website: its crawled documents,
// its text fragments and its chat sessions.

func Websites() Path {
	return Path{"websites"}
}

func WebsiteDocuments(websiteID string) Path {
	return Websites().Child(websiteID, "documents")
}

func WebsiteFragments(websiteID string) Path {
	return Websites().Child(websiteID, "fragments")
}

func WebsiteSessions(websiteID string) Path {
	return Websites().Child(websiteID, "sessions")
}

func SessionMessages(websiteID, sessionID string) Path {
	return WebsiteSessions(websiteID).Child(sessionID, "messages")
}
