package config

// S3Config — настройки S3-совместимого бэкенда файлового хранилища.
// Хранилище остаётся локальным, пока Endpoint пуст.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Configured сообщает, задан ли S3 бэкенд.
func (s S3Config) Configured() bool { return s.Endpoint != "" }
