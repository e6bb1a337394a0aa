package bot

// User-facing texts. The bot speaks Russian.
const (
	textStart = "Добро пожаловать в бот знакомств для олимпиадников! " +
		"Давайте начнём с создания анкеты.\n\nПосмотреть все команды можно " +
		"через /help."

	textContactFooter = "\n\nВопросы и предложения: @%s"

	textHelp = `Доступные команды:
/create — заполнить анкету
/profile — показать мою анкету
/edit — изменить анкету
/date — найти партнёра
/enable — включить анкету
/disable — выключить анкету
/start — приветственное сообщение
/help — помощь по командам`

	textProfileCreationStarted = "Начинаем создавать анкету, это не займёт у вас " +
		"много времени.\nНе волнуйтесь, если где-то ошибётесь: вы можете " +
		"изменить её после регистрации командой /edit."

	textPleaseCreateProfile = "Чтобы начать смотреть анкеты, сначала необходимо " +
		"заполнить свою. Воспользуйтесь командой /create"

	textRequestName = "Как вас называть?"

	textRequestGender = "Теперь выберите ваш пол"
	textGenderMale    = "Я парень"
	textGenderFemale  = "Я девушка"

	textRequestGenderFilter = "Кого вы хотите заботать?"
	textGenderFilterMale    = "Парня"
	textGenderFilterFemale  = "Девушку"
	textGenderFilterAny     = "Не важно"

	textRequestGrade = "В каком вы сейчас классе?\nПримечание: если вы, " +
		"например, окончили 9-ый класс, но ещё не поступили в 10-ый - вы в 9-ом."

	textEditSubjects = "Какие предметы вы ботаете? Нажмите на предмет, чтобы " +
		"добавить или убрать его."

	textEditPartnerSubjects = "Выберите предметы, хотя бы один из которых " +
		"должен ботать тот, кого вы ищете. Нажмите на предмет, чтобы добавить " +
		"или убрать его."

	textRequestDatingPurpose = "Ради чего вы хотите познакомиться? Можно " +
		"выбрать несколько вариантов."

	textSubjectsChosen       = "Вы ботаете: %s"
	textSubjectsNone         = "Вы ничего не ботаете 🤷"
	textSubjectsFilterChosen = "Хотя бы один предмет из: %s"
	textSubjectsFilterAny    = "Предметы, которые ботает партнёр, не важны"
	textPurposeChosen        = "Цель знакомства: %s"
	textMustChoosePurpose    = "Нельзя ничего не выбрать!"

	textRequestCity = "Напишите название города, в котором вы живёте. Система " +
		"найдёт город с наиболее похожим названием и попросит подтвердить.\n\n" +
		"Совет: даже если вы живёте в очень маленьком городе, всё равно лучше " +
		"указать именно его: на следующем шаге вы сможете выбрать, что ищете " +
		"людей в своей области или по всей России."

	textCantFindCity = "Не удалось найти город! Попробуйте ввести его имя " +
		"более точно."

	textCityConfirm = "Ваш город — %s?"

	textNoCity = "Так как вы не указали свой город, мы будем искать людей по " +
		"всей России"

	textRequestLocationFilter = "Где вы хотите искать людей?\nПо всей стране, " +
		"в своём федеральном округе, в своём субъекте федерации или только в " +
		"своём городе?"

	textRequestAbout = "Расскажите о себе: чем занимаетесь, кого хотите найти"

	textRequestPhotos = "Отправьте парочку своих фото или видео"
	textTooManyPhotos = "Невозможно добавить более 10 фото/видео"
	textPhotosAdded   = "Добавлено %d из 10 фото/видео"

	textRequestEdit = "Что вы хотите изменить?"

	textRequestLikeMessage = "Введите сообщение, которое вы хотите отправить " +
		"вместе с лайком"

	textLikeMessageSent = "Сообщение отправлено!"

	textSomeoneLikedYou = "Ваша анкета кому-то понравилась!"
	textLikeMessageFor  = "Сообщение для вас:\n%s"
	textMutualLike      = "У вас взаимная симпатия! 🎉"

	textPartnerNotFound = "К сожалению, не удалось никого найти.\nСовет: " +
		"попробуйте ослабить фильтры или просто немного подождать, так как наш " +
		"бот не отправляет анкеты одних и тех же людей чаще одного раза в 4 часа."

	textProfileEnabled  = "Ваша анкета включена ✅"
	textProfileDisabled = "Ваша анкета выключена ❌"

	textUnknownCommand = "Неизвестная команда. Посмотрите список команд: /help"

	btnCityCorrect     = "Верно"
	btnCityUnspecified = "Не указывать"
	btnNoPhotos        = "Без фото"
	btnSavePhotos      = "Сохранить"
	btnContinue        = "Продолжить"
	btnOpenChat        = "Открыть чат"
	btnCreateProfile   = "Заполнить анкету ✍"
	btnEditCancel      = "Отмена"
)
