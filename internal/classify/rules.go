package classify

import (
	"regexp"

	"github.com/MikeSquared-Agency/chatarchive/internal/chat"
)

// systemIndicators mark notices an exporter attributes to a sender (usually
// the group name). Any match forces a system message. These are plain
// substring matches, so "leftover" counts as "left".
var systemIndicators = []*regexp.Regexp{
	regexp.MustCompile(`(?i)messages and calls are end-to-end encrypted`),
	regexp.MustCompile(`(?i)created group`),
	regexp.MustCompile(`(?i)added`),
	regexp.MustCompile(`(?i)left`),
	regexp.MustCompile(`(?i)removed`),
	regexp.MustCompile(`(?i)changed the subject`),
	regexp.MustCompile(`(?i)changed this group`),
	regexp.MustCompile(`(?i)changed the group`),
	regexp.MustCompile(`(?i)security code changed`),
}

var deletedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)this message was deleted`),
	regexp.MustCompile(`(?i)you deleted this message`),
	regexp.MustCompile(`(?i)message deleted`),
	regexp.MustCompile(`(?i)se eliminó este mensaje`),
	regexp.MustCompile(`(?i)eliminaste este mensaje`),
	regexp.MustCompile(`(?i)mensagem apagada`),
	regexp.MustCompile(`(?i)você apagou esta mensagem`),
	regexp.MustCompile(`(?i)diese nachricht wurde gelöscht`),
	regexp.MustCompile(`(?i)du hast diese nachricht gelöscht`),
	regexp.MustCompile(`(?i)ce message a été supprimé`),
	regexp.MustCompile(`(?i)vous avez supprimé ce message`),
}

type kindRule struct {
	re   *regexp.Regexp
	kind chat.Kind
}

var omissionRules = []kindRule{
	{regexp.MustCompile(`(?i)image omitted`), chat.KindImage},
	{regexp.MustCompile(`(?i)video omitted`), chat.KindVideo},
	{regexp.MustCompile(`(?i)audio omitted`), chat.KindAudio},
	{regexp.MustCompile(`(?i)sticker omitted`), chat.KindImage},
	{regexp.MustCompile(`(?i)document omitted`), chat.KindDocument},
	{regexp.MustCompile(`(?i)GIF omitted`), chat.KindImage},
	{regexp.MustCompile(`(?i)imagen omitida`), chat.KindImage},
	{regexp.MustCompile(`(?i)v[ií]deo omitido`), chat.KindVideo},
	{regexp.MustCompile(`(?i)audio omitido`), chat.KindAudio},
	{regexp.MustCompile(`(?i)sticker omitido`), chat.KindImage},
	{regexp.MustCompile(`(?i)documento omitido`), chat.KindDocument},
	{regexp.MustCompile(`(?i)imagem ocultada`), chat.KindImage},
	{regexp.MustCompile(`(?i)bild weggelassen`), chat.KindImage},
	{regexp.MustCompile(`(?i)video weggelassen`), chat.KindVideo},
	{regexp.MustCompile(`(?i)audio weggelassen`), chat.KindAudio},
	{regexp.MustCompile(`(?i)dokument weggelassen`), chat.KindDocument},
}

const (
	imageExt    = `jpg|jpeg|png|gif|webp`
	videoExt    = `mp4|mov|avi|mkv|3gp`
	audioExt    = `opus|ogg|mp3|m4a|wav|aac`
	documentExt = `pdf|docx|doc|xlsx|xls|pptx|ppt|txt|zip`
)

// attachmentRules capture the attached file name in group 1.
var attachmentRules = []kindRule{
	{regexp.MustCompile(`(?i)<attached:\s*([^>]+\.(` + imageExt + `))>`), chat.KindImage},
	{regexp.MustCompile(`(?i)<attached:\s*([^>]+\.(` + videoExt + `))>`), chat.KindVideo},
	{regexp.MustCompile(`(?i)<attached:\s*([^>]+\.(` + audioExt + `))>`), chat.KindAudio},
	{regexp.MustCompile(`(?i)<attached:\s*([^>]+\.(` + documentExt + `))>`), chat.KindDocument},
	{regexp.MustCompile(`(?i)(\S+\.(` + imageExt + `))\s*\(file attached\)`), chat.KindImage},
	{regexp.MustCompile(`(?i)(\S+\.(` + videoExt + `))\s*\(file attached\)`), chat.KindVideo},
	{regexp.MustCompile(`(?i)(\S+\.(` + audioExt + `|ptt))\s*\(file attached\)`), chat.KindAudio},
	{regexp.MustCompile(`(?i)(\S+\.(` + documentExt + `))\s*\(file attached\)`), chat.KindDocument},
}

// bareFileName finds a media file name mentioned without a marker.
var bareFileName = regexp.MustCompile(`(?i)([A-Z0-9-]+\.(jpeg|jpg|png|gif|webp|mp4|mov|avi|opus|ogg|mp3|m4a|pdf|docx|doc))\b`)

// fileFamilies resolve a bare file name to a kind, in order.
var fileFamilies = []kindRule{
	{regexp.MustCompile(`(?i)\.(` + imageExt + `)$`), chat.KindImage},
	{regexp.MustCompile(`(?i)\.(` + videoExt + `)$`), chat.KindVideo},
	{regexp.MustCompile(`(?i)\.(` + audioExt + `|ptt)$`), chat.KindAudio},
	{regexp.MustCompile(`(?i)\.(` + documentExt + `)$`), chat.KindDocument},
}
