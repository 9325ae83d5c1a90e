package publish

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/wras-dhh/server/domain/entities"
)

// pageTemplate embeds an auto-playing looping sign-language video, a looping
// audio track, and a continuously scrolling ticker cycling through all four
// languages' text. The marquee restarts its animation on load so it scrolls
// immediately even when the page is opened from cache.
var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="google" content="notranslate">
    <title>{{.Title}}</title>
    <style>
        body { margin: 0; background: #0b1020; color: #fff; font-family: sans-serif; overflow: hidden; }
        .video-wrap { display: flex; justify-content: center; align-items: center; height: 85vh; }
        video { max-height: 100%; max-width: 100%; }
        .marquee-container { position: fixed; bottom: 0; width: 100%; background: #101738; overflow: hidden; white-space: nowrap; }
        .marquee { display: inline-block; padding: 18px 0; font-size: 2rem; animation: scroll-left 60s linear infinite; }
        .marquee .separator { color: #ffb300; padding: 0 24px; }
        @keyframes scroll-left {
            from { transform: translateX(100vw); }
            to { transform: translateX(-100%); }
        }
    </style>
</head>
<body>
    <div class="video-wrap">
        <video autoplay loop muted playsinline>
            <source src="{{.VideoURL}}" type="video/mp4">
        </video>
    </div>
    <audio autoplay loop>
        <source src="{{.AudioURL}}" type="audio/mpeg">
    </audio>
    <div class="marquee-container">
        <div class="marquee">{{range $i, $t := .TickerTexts}}{{if $i}}<span class="separator">&bull;</span>{{end}}{{$t}}{{end}}</div>
    </div>
    <script>
        window.addEventListener('load', function () {
            var marquee = document.querySelector('.marquee');
            if (marquee) {
                marquee.style.animation = 'none';
                void marquee.offsetHeight;
                marquee.style.animation = 'scroll-left 60s linear infinite';
            }
            var audio = document.querySelector('audio');
            if (audio) {
                audio.play().catch(function () {});
            }
        });
    </script>
</body>
</html>
`))

type pageData struct {
	Title       string
	VideoURL    string
	AudioURL    string
	TickerTexts []string
}

func renderPage(page Page) ([]byte, error) {
	data := pageData{
		Title:    page.Title,
		VideoURL: page.VideoURL,
		AudioURL: page.AudioURL,
	}
	// Ticker cycles the languages in the same fixed order the audio plays.
	for _, lang := range entities.MergeOrder {
		if text := strings.TrimSpace(page.Texts[lang]); text != "" {
			data.TickerTexts = append(data.TickerTexts, text)
		}
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
