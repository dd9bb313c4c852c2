package bot

import (
	"fmt"
	"strings"

	coreconfig "leadbot/core/config"
)

// fallbackFirstName is used in greetings when the transport has no first name.
const fallbackFirstName = "Friend"

const (
	msgAskCountry = "🌍 What country are you from? (full name or abbreviation like *USA*, *UK*, *UAE*)"
	msgBadCountry = "❌ Please type a valid country (e.g., *USA*, *United States*, *UK*)."

	msgAskPhone = "📱 Please share your working phone number **with country code** (e.g., +15551234567):"
	msgBadPhone = "❌ That doesn't look right. Use 7-15 digits, optional leading '+'. Try again:"

	msgAskEmail = "📧 Finally, what's your best email?"
	msgBadEmail = "❌ That email format looks off. Example: name@example.com. Try again:"
)

// Messages renders the canned replies from channel configuration.
type Messages struct {
	CommunityName  string
	InviteLink     string
	SupportContact string

	WelcomePhotoURL string
	MemberPhotoURL  string
	JoinPhotoURL    string
}

// NewMessages builds reply texts from configuration, applying fallbacks for
// optional fields.
func NewMessages(cfg *coreconfig.Config) Messages {
	m := Messages{}
	if cfg != nil {
		m.CommunityName = strings.TrimSpace(cfg.Channel.Name)
		m.InviteLink = strings.TrimSpace(cfg.Channel.InviteLink)
		m.SupportContact = strings.TrimSpace(cfg.Channel.SupportContact)
		m.WelcomePhotoURL = strings.TrimSpace(cfg.Media.WelcomePhotoURL)
		m.MemberPhotoURL = strings.TrimSpace(cfg.Media.MemberPhotoURL)
		m.JoinPhotoURL = strings.TrimSpace(cfg.Media.JoinPhotoURL)
	}
	if m.CommunityName == "" {
		m.CommunityName = "our community"
	}
	return m
}

// Welcome greets an unregistered user at the start of onboarding.
func (m Messages) Welcome(first string) string {
	first = firstNameOrFallback(first)
	return fmt.Sprintf(
		"🎉 *Welcome to %s*, %s!\n\n🚀 Unlock consistent profits with our exclusive *trading course*, premium *indicator*, and *private traders' community*.\n\nLet's get you onboard. I'll just collect a couple of details.",
		m.CommunityName, first,
	)
}

// AlreadyMember replies to a registered user who already joined the channel.
func (m Messages) AlreadyMember(first string) string {
	first = firstNameOrFallback(first)
	s := fmt.Sprintf("✅ **Hi %s**, you are already registered and part of **%s**.", first, m.CommunityName)
	if m.SupportContact != "" {
		s += fmt.Sprintf("\n\n💬 Please contact our support team: **%s**", m.SupportContact)
	}
	return s
}

// Join replies to a registered user who has not joined the channel yet.
func (m Messages) Join(first string) string {
	first = firstNameOrFallback(first)
	s := fmt.Sprintf("👋 **Hi %s**, you are registered but not a member of **%s** yet.", first, m.CommunityName)
	if m.InviteLink != "" {
		s += fmt.Sprintf("\n\n🚀 Please join here to access our community:\n👉 %s", m.InviteLink)
	}
	return s
}

// Invite confirms a completed onboarding and hands out the channel invite.
func (m Messages) Invite(first string) string {
	first = firstNameOrFallback(first)
	s := fmt.Sprintf("✅ All set, %s! 🥳", first)
	if m.InviteLink != "" {
		s += fmt.Sprintf("\n\nHere's your exclusive invitation to join **%s**:\n👉 %s", m.CommunityName, m.InviteLink)
	}
	s += "\n\nWelcome aboard! 🎯"
	return s
}

func firstNameOrFallback(first string) string {
	if s := strings.TrimSpace(first); s != "" {
		return s
	}
	return fallbackFirstName
}
