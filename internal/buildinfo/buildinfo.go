package buildinfo

const Graffiti = "______  ___   _   _ _____  _____ _____ \n| ___ \\/ _ \\ | \\ | |  __ \\|  ___|  _  |\n| |_/ / /_\\ \\|  \\| | |  \\/| |__ | | | |\n|    /|  _  || . ` | | __ |  __|| | | |\n| |\\ \\| | | || |\\  | |_\\ \\| |___\\ \\/' /\n\\_| \\_\\_| |_/\\_| \\_/\\____/\\____/ \\_/\\_\\\n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "RANGEQ"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
