package i18n

type Language string

const (
	Italian Language = "it"
	English Language = "en"
)

var currentLang = Italian

type Messages struct {
	// General
	Loading   string
	Error     string
	Yes       string
	No        string
	None      string
	Unsaved   string
	Files     string
	Help      string
	Exit      string
	Protected string
	On        string
	Off       string

	// Modes
	ModeNormal string
	ModeEdit   string

	// Panels
	NoFiles    string
	EmptySheet string
	Untitled   string

	// Metadata
	ModifiedAt    string
	Kind          string
	AutoSave      string
	Interval      string
	Notifications string

	// Dialogs
	SaveAs              string
	NamePlaceholder     string
	NameRules           string
	OpenProtected       string
	SetPassword         string
	RemovePassword      string
	PasswordPlaceholder string
	DeleteFile          string
	DeleteConfirm       string
	SheetPlaceholder    string

	// Actions
	EnterConfirm string
	EscCancel    string

	// Autosave
	AutoSaveOff    string
	AutoSaveOn     string
	LastSaved      string
	NextSave       string
	AutoSaved      string
	Saved          string
	SaveFailed     string
	ProtectedOK    string
	UnprotectedOK  string
	Deleted        string
	NothingToSave  string
	SaveInProgress string

	// Errors
	ErrInvalidName      string
	ErrAlreadyExists    string
	ErrNotFound         string
	ErrPasswordRequired string
	ErrInvalidPassword  string
	ErrAlreadyProtected string
	ErrNotProtected     string
	ErrStorage          string
	ErrCorrupt          string

	// Help sections
	HelpNavigation string
	HelpEditing    string
	HelpFiles      string
	HelpAutoSave   string
	HelpGeneral    string

	// Help descriptions
	HelpUp            string
	HelpDown          string
	HelpOpen          string
	HelpEdit          string
	HelpExitEdit      string
	HelpSave          string
	HelpSaveAs        string
	HelpNew           string
	HelpDelete        string
	HelpProtect       string
	HelpUnprotect     string
	HelpToggleAuto    string
	HelpIntervalUp    string
	HelpIntervalDown  string
	HelpNotifications string
	HelpKind          string
	HelpRefresh       string
	HelpHelp          string
	HelpExit          string
	HelpClose         string

	// Keys descriptions (short)
	KeyUp            string
	KeyDown          string
	KeyEnter         string
	KeyEdit          string
	KeyEscape        string
	KeySave          string
	KeySaveAs        string
	KeyNew           string
	KeyDelete        string
	KeyProtect       string
	KeyUnprotect     string
	KeyAutoSave      string
	KeyIntervalUp    string
	KeyIntervalDown  string
	KeyNotifications string
	KeyKind          string
	KeyRefresh       string
	KeyQuit          string
	KeyHelp          string

	// Prompts
	PasswordPrompt string
}

var translations = map[Language]Messages{
	Italian: {
		// General
		Loading:   "Caricamento...",
		Error:     "Errore",
		Yes:       "Sì",
		No:        "No",
		None:      "nessuno",
		Unsaved:   "Non salvato",
		Files:     "file",
		Help:      "Aiuto",
		Exit:      "Esci",
		Protected: "Protetto",
		On:        "attivo",
		Off:       "disattivo",

		// Modes
		ModeNormal: "NORMALE",
		ModeEdit:   "MODIFICA",

		// Panels
		NoFiles:    "Nessun file salvato",
		EmptySheet: "Foglio vuoto",
		Untitled:   "Senza titolo",

		// Metadata
		ModifiedAt:    "Modificato:",
		Kind:          "Modello:",
		AutoSave:      "Salvataggio automatico:",
		Interval:      "Intervallo:",
		Notifications: "Notifiche:",

		// Dialogs
		SaveAs:              "Salva con nome",
		NamePlaceholder:     "Nome file...",
		NameRules:           "Max 30 caratteri: lettere, numeri, spazi e -",
		OpenProtected:       "File protetto: %s",
		SetPassword:         "Proteggi con password",
		RemovePassword:      "Rimuovi password",
		PasswordPlaceholder: "Password...",
		DeleteFile:          "Elimina File",
		DeleteConfirm:       "Eliminare '%s'?",
		SheetPlaceholder:    "Scrivi qui...",

		// Actions
		EnterConfirm: "[Enter] Conferma",
		EscCancel:    "[Esc] Annulla",

		// Autosave
		AutoSaveOff:    "Autosalvataggio spento",
		AutoSaveOn:     "Autosalvataggio",
		LastSaved:      "salvato alle %s",
		NextSave:       "prossimo alle %s",
		AutoSaved:      "Salvato automaticamente: %s",
		Saved:          "Salvato: %s",
		SaveFailed:     "Salvataggio fallito",
		ProtectedOK:    "Password impostata: %s",
		UnprotectedOK:  "Password rimossa: %s",
		Deleted:        "Eliminato: %s",
		NothingToSave:  "Nessun file da salvare",
		SaveInProgress: "Salvataggio in corso",

		// Errors
		ErrInvalidName:      "Nome non valido",
		ErrAlreadyExists:    "Esiste già un file con questo nome",
		ErrNotFound:         "File non trovato",
		ErrPasswordRequired: "Password richiesta",
		ErrInvalidPassword:  "Password errata",
		ErrAlreadyProtected: "Il file è già protetto",
		ErrNotProtected:     "Il file non è protetto",
		ErrStorage:          "Errore di archiviazione",
		ErrCorrupt:          "File danneggiato",

		// Help sections
		HelpNavigation: "Navigazione",
		HelpEditing:    "Modifica",
		HelpFiles:      "File",
		HelpAutoSave:   "Salvataggio automatico",
		HelpGeneral:    "Generale",

		// Help descriptions
		HelpUp:            "Su",
		HelpDown:          "Giù",
		HelpOpen:          "Apri file",
		HelpEdit:          "Modifica foglio",
		HelpExitEdit:      "Esci dalla modifica",
		HelpSave:          "Salva",
		HelpSaveAs:        "Salva con nome",
		HelpNew:           "Nuovo foglio",
		HelpDelete:        "Elimina file",
		HelpProtect:       "Proteggi con password",
		HelpUnprotect:     "Rimuovi password",
		HelpToggleAuto:    "Attiva/disattiva autosalvataggio",
		HelpIntervalUp:    "Aumenta intervallo",
		HelpIntervalDown:  "Riduci intervallo",
		HelpNotifications: "Attiva/disattiva notifiche",
		HelpKind:          "Cambia modello",
		HelpRefresh:       "Aggiorna elenco",
		HelpHelp:          "Mostra aiuto",
		HelpExit:          "Esci",
		HelpClose:         "Premi Esc o ? per chiudere",

		// Keys descriptions (short)
		KeyUp:            "su",
		KeyDown:          "giù",
		KeyEnter:         "apri",
		KeyEdit:          "modifica",
		KeyEscape:        "indietro",
		KeySave:          "salva",
		KeySaveAs:        "salva come",
		KeyNew:           "nuovo",
		KeyDelete:        "elimina",
		KeyProtect:       "proteggi",
		KeyUnprotect:     "sblocca",
		KeyAutoSave:      "autosalva",
		KeyIntervalUp:    "intervallo +",
		KeyIntervalDown:  "intervallo -",
		KeyNotifications: "notifiche",
		KeyKind:          "modello",
		KeyRefresh:       "aggiorna",
		KeyQuit:          "esci",
		KeyHelp:          "aiuto",

		// Prompts
		PasswordPrompt: "Password per %s: ",
	},
	English: {
		// General
		Loading:   "Loading...",
		Error:     "Error",
		Yes:       "Yes",
		No:        "No",
		None:      "none",
		Unsaved:   "Unsaved",
		Files:     "files",
		Help:      "Help",
		Exit:      "Exit",
		Protected: "Protected",
		On:        "on",
		Off:       "off",

		// Modes
		ModeNormal: "NORMAL",
		ModeEdit:   "EDIT",

		// Panels
		NoFiles:    "No saved files",
		EmptySheet: "Empty sheet",
		Untitled:   "Untitled",

		// Metadata
		ModifiedAt:    "Modified:",
		Kind:          "Template:",
		AutoSave:      "Autosave:",
		Interval:      "Interval:",
		Notifications: "Notifications:",

		// Dialogs
		SaveAs:              "Save As",
		NamePlaceholder:     "File name...",
		NameRules:           "Up to 30 characters: letters, digits, spaces and -",
		OpenProtected:       "Protected file: %s",
		SetPassword:         "Protect with password",
		RemovePassword:      "Remove password",
		PasswordPlaceholder: "Password...",
		DeleteFile:          "Delete File",
		DeleteConfirm:       "Delete '%s'?",
		SheetPlaceholder:    "Write here...",

		// Actions
		EnterConfirm: "[Enter] Confirm",
		EscCancel:    "[Esc] Cancel",

		// Autosave
		AutoSaveOff:    "Autosave off",
		AutoSaveOn:     "Autosave",
		LastSaved:      "saved at %s",
		NextSave:       "next at %s",
		AutoSaved:      "Auto-saved: %s",
		Saved:          "Saved: %s",
		SaveFailed:     "Save failed",
		ProtectedOK:    "Password set: %s",
		UnprotectedOK:  "Password removed: %s",
		Deleted:        "Deleted: %s",
		NothingToSave:  "No file to save",
		SaveInProgress: "Save in progress",

		// Errors
		ErrInvalidName:      "Invalid name",
		ErrAlreadyExists:    "A file with this name already exists",
		ErrNotFound:         "File not found",
		ErrPasswordRequired: "Password required",
		ErrInvalidPassword:  "Wrong password",
		ErrAlreadyProtected: "File is already protected",
		ErrNotProtected:     "File is not protected",
		ErrStorage:          "Storage error",
		ErrCorrupt:          "File is corrupted",

		// Help sections
		HelpNavigation: "Navigation",
		HelpEditing:    "Editing",
		HelpFiles:      "Files",
		HelpAutoSave:   "Autosave",
		HelpGeneral:    "General",

		// Help descriptions
		HelpUp:            "Move up",
		HelpDown:          "Move down",
		HelpOpen:          "Open file",
		HelpEdit:          "Edit sheet",
		HelpExitEdit:      "Exit edit mode",
		HelpSave:          "Save",
		HelpSaveAs:        "Save as",
		HelpNew:           "New sheet",
		HelpDelete:        "Delete file",
		HelpProtect:       "Protect with password",
		HelpUnprotect:     "Remove password",
		HelpToggleAuto:    "Toggle autosave",
		HelpIntervalUp:    "Increase interval",
		HelpIntervalDown:  "Decrease interval",
		HelpNotifications: "Toggle notifications",
		HelpKind:          "Cycle template",
		HelpRefresh:       "Refresh list",
		HelpHelp:          "Show help",
		HelpExit:          "Exit",
		HelpClose:         "Press Esc or ? to close",

		// Keys descriptions (short)
		KeyUp:            "up",
		KeyDown:          "down",
		KeyEnter:         "open",
		KeyEdit:          "edit",
		KeyEscape:        "back",
		KeySave:          "save",
		KeySaveAs:        "save as",
		KeyNew:           "new",
		KeyDelete:        "delete",
		KeyProtect:       "protect",
		KeyUnprotect:     "unprotect",
		KeyAutoSave:      "autosave",
		KeyIntervalUp:    "interval +",
		KeyIntervalDown:  "interval -",
		KeyNotifications: "notifications",
		KeyKind:          "template",
		KeyRefresh:       "refresh",
		KeyQuit:          "quit",
		KeyHelp:          "help",

		// Prompts
		PasswordPrompt: "Password for %s: ",
	},
}

func SetLanguage(lang Language) {
	if _, ok := translations[lang]; ok {
		currentLang = lang
	}
}

func GetLanguage() Language {
	return currentLang
}

func T() Messages {
	return translations[currentLang]
}
