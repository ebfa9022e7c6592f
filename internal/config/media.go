package config

type Media struct {
	Root           string `env:"MEDIA_ROOT" envDefault:"./media"`
	URLPrefix      string `env:"MEDIA_URL" envDefault:"/media/"`
	MaxUploadBytes int64  `env:"MEDIA_MAX_UPLOAD_BYTES" envDefault:"5242880"`
}
